package router

import (
	"fmt"

	"github.com/vyrodovalexey/avactions/internal/config"
	"github.com/vyrodovalexey/avactions/internal/security"
	"github.com/vyrodovalexey/avactions/internal/util"
)

// RouteFromConfig compiles one configured route.
func RouteFromConfig(rc config.RouteConfig) (*Route, error) {
	spec := NewRequestSpec()

	for i, sc := range rc.Segments {
		seg, err := segmentFromConfig(sc)
		if err != nil {
			return nil, util.NewConfigErrorWithCause(fmt.Sprintf("routes.%s.segments[%d]", rc.Name, i), err.Error(), err)
		}
		spec.Segments = append(spec.Segments, seg)
	}

	for _, pc := range rc.Parameters {
		p, err := parameterFromConfig(pc)
		if err != nil {
			return nil, util.NewConfigErrorWithCause(fmt.Sprintf("routes.%s.parameters.%s", rc.Name, pc.Name), err.Error(), err)
		}
		spec.Parameters = append(spec.Parameters, p)
	}

	if rc.CSRF {
		spec.WithCSRF()
	}
	for _, k := range rc.CacheKeys {
		spec.WithCacheKeys(CacheKey{Name: k.Name, Value: k.Value})
	}

	opts := []RouteOption{WithTimeout(rc.Timeout.Duration())}
	if rc.Cache != nil {
		opts = append(opts, WithCache(rc.Cache.Provider, rc.Cache.KeyPrefix, rc.Cache.TTL.Duration()))
	}
	if rc.BruteForce != nil {
		opts = append(opts, WithBruteForce(rc.BruteForce.Min.Duration(), rc.BruteForce.Max.Duration()))
	}

	return NewRoute(rc.Name, rc.Handler, spec, opts...), nil
}

func segmentFromConfig(sc config.SegmentConfig) (Segment, error) {
	rules, err := security.ParseRules(sc.Rules...)
	if err != nil {
		return Segment{}, err
	}
	filters, err := security.ParseFilters(sc.Filters...)
	if err != nil {
		return Segment{}, err
	}

	switch sc.Type {
	case config.SegmentTypeFixed, "":
		return Fixed(sc.Value), nil
	case config.SegmentTypeString:
		return Var(sc.Name, WithRules(rules...), WithFilters(filters...)), nil
	case config.SegmentTypeNumeric:
		return Numeric(sc.Name, WithRules(rules...), WithFilters(filters...)), nil
	default:
		return Segment{}, fmt.Errorf("unknown segment type %q", sc.Type)
	}
}

func parameterFromConfig(pc config.ParameterConfig) (Parameter, error) {
	rules, err := security.ParseRules(pc.Rules...)
	if err != nil {
		return Parameter{}, err
	}
	filters, err := security.ParseFilters(pc.Filters...)
	if err != nil {
		return Parameter{}, err
	}
	opts := []ParameterOption{ParamRules(rules...), ParamFilters(filters...)}

	switch pc.GetSource() {
	case config.ParameterSourceQuery:
		return Query(pc.Name, opts...), nil
	case config.ParameterSourceBody:
		return Body(pc.Name, opts...), nil
	case config.ParameterSourceFile:
		if pc.File != nil {
			opts = append(opts, ParamFile(security.FileRules{
				Extensions: pc.File.Extensions,
				MimeTypes:  pc.File.MimeTypes,
				MinSize:    pc.File.MinSize,
				MaxSize:    pc.File.MaxSize,
				Image:      pc.File.Image,
			}))
		}
		return File(pc.Name, opts...), nil
	default:
		return Parameter{}, fmt.Errorf("unknown parameter source %q", pc.Source)
	}
}

// Load compiles and registers routes in list order.
func (r *Router) Load(routes []config.RouteConfig) error {
	for _, rc := range routes {
		route, err := RouteFromConfig(rc)
		if err != nil {
			return err
		}
		if err := r.Register(route); err != nil {
			return err
		}
	}
	return nil
}
