package util

import "github.com/gggutils/i2srun/lib/util/logger"

var log = logger.GetLogger()
