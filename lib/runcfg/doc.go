// Package runcfg reads, resolves and writes the batch I2S run
// configuration.
//
// A config document has three top-level sections:
//
//	[Run]
//	run_top_dir = ./runs
//
//	[I2S]
//	3 = 1
//
//	[Sites]
//	    [[pa]]
//	    slices = 0
//	    site_root_dir = /data/pa
//	    no_date_dir = 0
//	    subdir = igms
//	    slices_in_subdir = 0
//	    flimit_file = ./flimit.i2s
//	        [[[pa20140918]]]
//	        i2s_input_file = ./pa20140918.opus-i2s.in
//	        flimit_file = /c/d
//
// [Run] holds global options, [I2S] overrides numbered I2S input file
// parameters in every generated run file, and each site section holds
// defaults that its date sections may override. Option lookup falls back
// from a date section to its site exactly once.
//
// Relative paths in run_top_dir, site_root_dir, flimit_file and
// i2s_input_file resolve against Document.BaseDir, the directory of the
// config file, never against the process working directory.
package runcfg
