package grid

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "grid")
