// Package config manages the i2srun settings file.
//
// # Settings
//
// Settings describe the machine i2srun runs on, not a batch of runs: where
// GGG is installed, which I2S binary to call, how many runs to start at
// once. Batch layout lives in run configuration files (see package
// runcfg).
//
// The settings file is $HOME/.i2srun/config.yaml. It is created with the
// defaults on first use. Every key can be overridden from the environment
// with an I2SRUN_ prefix, dots replaced by underscores, for example
// I2SRUN_RUN_JOBS=8. GGGPATH sets ggg_path directly.
//
//	ggg_path: /opt/ggg
//	i2s:
//	  command: ""          # defaults to $GGGPATH/bin/i2s
//	  header_params: 28
//	  comment_marker: ":"
//	run:
//	  jobs: 4
//	  launch_rate: 0       # runs started per second, 0 for no limit
//	  launch_burst: 1
//	  halt_file: HALT
//	  grace_period: 10s
package config
