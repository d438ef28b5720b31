package provider

import (
	"errors"
	"sort"
	"strings"
)

var ErrProviderNotSupported = errors.New("provider is not supported")

type Registry struct {
	providers map[string]PaymentGatewayProvider
}

func NewRegistry(providers ...PaymentGatewayProvider) *Registry {
	items := make(map[string]PaymentGatewayProvider, len(providers))
	for _, p := range providers {
		items[p.Alias()] = p
	}
	return &Registry{providers: items}
}

func (r *Registry) Get(alias string) (PaymentGatewayProvider, error) {
	provider, ok := r.providers[strings.ToLower(strings.TrimSpace(alias))]
	if !ok {
		return nil, ErrProviderNotSupported
	}
	return provider, nil
}

func (r *Registry) Aliases() []string {
	aliases := make([]string, 0, len(r.providers))
	for alias := range r.providers {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}
