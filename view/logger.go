package view

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "view")
