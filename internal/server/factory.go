package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/config"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/issuer"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/provider"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/session"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/store"
)

func New(conf *config.Config, p provider.Interface) *http.Server {
	var st store.CodeStore
	if conf.Store.Redis.Addr != "" {
		st = store.NewRedisStore(&conf.Store.Redis)
	} else {
		st = store.NewMemoryStore()
	}

	iss := issuer.New()
	sessions := session.NewManager()
	api := newAPI(iss, p, conf, st, sessions, time.Now)
	return newServer(conf, api, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}
