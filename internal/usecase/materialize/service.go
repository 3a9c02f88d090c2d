package materialize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geocatalog/internal/domain"
	"github.com/kailas-cloud/geocatalog/internal/domain/adapter"
	"github.com/kailas-cloud/geocatalog/internal/domain/geo"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
	"github.com/kailas-cloud/geocatalog/internal/domain/outcome"
	"github.com/kailas-cloud/geocatalog/internal/domain/record"
	"github.com/kailas-cloud/geocatalog/internal/logger"
)

// Service turns raw search hits into catalog items for one adapter configuration.
// It is safe for concurrent use.
type Service struct {
	cfg    adapter.Config
	prober Prober
	proxy  URLProxy
}

// New creates a materializer. cfg must already be validated; proxy may be nil.
func New(cfg adapter.Config, prober Prober, proxy URLProxy) (*Service, error) {
	if prober == nil && !cfg.SkipProbe {
		return nil, domain.NewConfigurationError("probe", "requires a prober")
	}
	return &Service{cfg: cfg, prober: prober, proxy: proxy}, nil
}

// Materialize converts one hit. Every per-record anomaly is returned as a skip,
// never as an error.
func (s *Service) Materialize(ctx context.Context, raw json.RawMessage) outcome.Result {
	res := s.materialize(ctx, raw)
	if res.Skipped() {
		logger.FromContext(ctx).Debug("record skipped",
			zap.String("reason", string(res.Reason())), zap.Error(res.Err()))
	}
	return res
}

func (s *Service) materialize(ctx context.Context, raw json.RawMessage) outcome.Result {
	if err := ctx.Err(); err != nil {
		return outcome.NewSkip(outcome.SkipCancelled, err)
	}

	rec, err := record.Decode(raw)
	if err != nil {
		return outcome.NewSkip(outcome.SkipInvalidField, err)
	}
	if !rec.HasTiles() {
		return outcome.NewSkip(outcome.SkipNoTiles, nil)
	}

	assetURL, ok, err := rec.String(s.cfg.AssetFieldID)
	if err != nil {
		return outcome.NewSkip(outcome.SkipNoAsset, err)
	}
	if !ok || assetURL == "" {
		return outcome.NewSkip(outcome.SkipNoAsset, nil)
	}
	assetURL = s.cfg.Rewrite.Apply(assetURL)

	if res, ok := s.probe(ctx, assetURL); !ok {
		return res
	}

	p := item.Params{
		Group:      s.cfg.Group,
		Type:       s.cfg.ItemType(),
		URL:        assetURL,
		Properties: mergeProperties(s.cfg.ItemDefaults(), s.cfg.ItemProperties),
	}

	if p.Name, err = resolveName(rec, s.cfg.NameFieldID); err != nil {
		return outcome.NewSkip(outcome.SkipInvalidField, err)
	}

	origin, found, err := resolvePosition(rec, s.cfg.PositionFieldID)
	if err != nil {
		return outcome.NewSkip(outcome.SkipInvalidField, err)
	}
	if !found && s.cfg.RequiresPosition() {
		return outcome.NewSkip(outcome.SkipNoPosition, nil)
	}
	p.Origin = origin

	if s.cfg.Kind == adapter.KindBIM || s.cfg.ScaleFieldID != "" {
		scale, err := resolveScale(rec, s.cfg.ScaleFieldID, s.cfg.DefaultScale)
		if err != nil {
			return outcome.NewSkip(outcome.SkipInvalidField, err)
		}
		p.Scale = &scale
	}

	it, err := item.New(p)
	if err != nil {
		return outcome.NewSkip(outcome.SkipInvalidField, err)
	}
	return outcome.NewItem(it)
}

// probe returns ok=false with the skip result when the record must not be materialized.
func (s *Service) probe(ctx context.Context, assetURL string) (outcome.Result, bool) {
	if s.cfg.SkipProbe {
		return outcome.Result{}, true
	}
	target := assetURL
	if s.proxy != nil {
		target = s.proxy.URL(assetURL, s.cfg.CacheDuration, s.cfg.ForceProxy)
	}
	present, err := s.prober.Probe(ctx, target)
	switch {
	case err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled)):
		return outcome.NewSkip(outcome.SkipCancelled, err), false
	case err != nil:
		return outcome.NewSkip(outcome.SkipProbeFailed, err), false
	case !present:
		return outcome.NewSkip(outcome.SkipAssetAbsent, nil), false
	}
	return outcome.Result{}, true
}

func resolveName(rec record.Record, fieldID string) (string, error) {
	v, ok := rec.Field(fieldID)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	if !json.Valid(v) {
		return "", fmt.Errorf("field %s is not valid JSON", fieldID)
	}
	return string(v), nil
}

func resolvePosition(rec record.Record, fieldID string) (*geo.Origin, bool, error) {
	if fieldID == "" {
		return nil, false, nil
	}
	v, ok := rec.Field(fieldID)
	if !ok || isFalsy(v) {
		return nil, false, nil
	}
	o, err := geo.OriginFromGeoJSON(v)
	if err != nil {
		return nil, true, fmt.Errorf("field %s: %w", fieldID, err)
	}
	return &o, true, nil
}

// resolveScale uses the field value when it is truthy, def otherwise.
// Numeric strings are accepted.
func resolveScale(rec record.Record, fieldID string, def float64) (float64, error) {
	if fieldID == "" {
		return def, nil
	}
	v, ok := rec.Field(fieldID)
	if !ok || isFalsy(v) {
		return def, nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("field %s: scale %q is not a number", fieldID, s)
		}
		return f, nil
	}
	return 0, fmt.Errorf("field %s: scale must be a number, got %s", fieldID, v)
}

// isFalsy reports JSON false, 0, "" and null.
func isFalsy(v json.RawMessage) bool {
	switch strings.TrimSpace(string(v)) {
	case "false", "null", `""`:
		return true
	}
	var f float64
	return json.Unmarshal(v, &f) == nil && f == 0
}

func mergeProperties(layers ...map[string]any) map[string]any {
	var out map[string]any
	for _, m := range layers {
		for k, v := range m {
			if out == nil {
				out = make(map[string]any)
			}
			out[k] = v
		}
	}
	return out
}
