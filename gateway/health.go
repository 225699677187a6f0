// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"context"
	"net/http"

	"github.com/alexliesenfeld/health"
)

const HealthPath = "/health"

// HealthHandler reports the result of [checkFunc] under [name]. Failing
// checks answer 503.
func HealthHandler(name string, checkFunc func(context.Context) error) http.Handler {
	checker := health.NewChecker(
		health.WithDisabledCache(),
		health.WithCheck(health.Check{
			Name:  name,
			Check: checkFunc,
		}),
	)
	return health.NewHandler(checker)
}
