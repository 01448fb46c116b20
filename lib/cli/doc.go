// Package cli is the i2srun command tree.
//
// The commands fall in three groups. The builders (header-catalog,
// build-cfg, build-cfg-many, build-cfg-hc, up-cfg, mod-runs) create and
// edit batch config files and I2S input files. link-inp and chk-links lay
// out and verify the run directories a config describes. par, run and halt
// drive I2S over those run directories.
package cli
