// Package rundir lays out and checks I2S run directories.
//
// Each site/date unit of a run configuration gets its own directory,
// run_top_dir/<site>/<date key>, holding:
//
//	igms/ or slices/    links to the unit's interferograms or slice runs
//	flimit.i2s          link to the window limits file
//	spectra/            output directory
//	opus-i2s.in         input file patched to use the paths above
//	  or slice-i2s.in
//
// I2S is then run from inside the directory.
package rundir
