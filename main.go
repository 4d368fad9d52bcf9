package main

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/config"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/constants"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/logging"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/provider/factory"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/server"
)

func main() {
	if err := logging.LoadLevel(); err != nil {
		logrus.WithError(err).Warn("failed to load log level")
	}

	conf, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	p, err := factory.New(&conf.Provider)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create provider")
	}

	srv := server.New(conf, p)
	logrus.WithFields(logrus.Fields{
		"service": constants.TianGongBridge,
		"addr":    srv.Addr,
	}).Info("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("server failed")
	}
}
