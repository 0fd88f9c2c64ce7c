package rpcutil

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "rpc")
