package factory

import (
	"fmt"

	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/config"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/provider"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/provider/wix"
)

const (
	providerWix = "wix"
)

func New(conf *config.ProviderConfig) (provider.Interface, error) {
	switch conf.Name {
	case providerWix:
		return wix.New(conf)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", conf.Name)
	}
}
