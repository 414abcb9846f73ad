package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"home_energy_dashboard/internal/models"
)

// SettingsBackend is the settings part of the energy backend API.
type SettingsBackend interface {
	ListSettings(ctx context.Context, entity string) ([]models.SettingsRecord, error)
	CreateSettings(ctx context.Context, entity string, rec models.SettingsRecord) (models.SettingsRecord, error)
	UpdateSettings(ctx context.Context, entity string, id int, rec models.SettingsRecord) (models.SettingsRecord, error)
	DeleteSettings(ctx context.Context, entity string, id int) error
}

var (
	ErrUnknownEntity = errors.New("unknown settings entity")
	ErrInvalidID     = errors.New("id must be > 0")
	ErrValidation    = errors.New("validation failed")
)

// ValidationError lists the required fields a record is missing.
type ValidationError struct {
	Entity  string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.Entity, strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

const labelSuffix = "_label"

// SettingsService validates settings records and resolves reference fields to labels.
type SettingsService struct {
	backend SettingsBackend
}

func NewSettingsService(backend SettingsBackend) *SettingsService {
	return &SettingsService{backend: backend}
}

// ListSettings returns the entity records with a "<field>_label" next to every
// resolvable reference. A reference list that cannot be fetched leaves its labels out.
func (s *SettingsService) ListSettings(ctx context.Context, entity string) ([]models.SettingsRecord, error) {
	spec, err := lookupEntity(entity)
	if err != nil {
		return nil, err
	}
	recs, err := s.backend.ListSettings(ctx, spec.Name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", spec.Name, err)
	}
	if len(recs) == 0 || len(spec.References) == 0 {
		return recs, nil
	}

	labels := map[string]map[int]string{}
	for _, ref := range spec.References {
		if _, done := labels[ref.Entity]; done {
			continue
		}
		refs, err := s.backend.ListSettings(ctx, ref.Entity)
		if err != nil {
			continue
		}
		byID := make(map[int]string, len(refs))
		for _, r := range refs {
			if l, ok := r[ref.LabelField].(string); ok {
				byID[r.ID()] = l
			}
		}
		labels[ref.Entity] = byID
	}

	for _, rec := range recs {
		for _, ref := range spec.References {
			id, ok := toInt(rec[ref.Field])
			if !ok {
				continue
			}
			if l, ok := labels[ref.Entity][id]; ok {
				rec[ref.Field+labelSuffix] = l
			}
		}
	}
	return recs, nil
}

func (s *SettingsService) CreateSettings(ctx context.Context, entity string, rec models.SettingsRecord) (models.SettingsRecord, error) {
	spec, err := lookupEntity(entity)
	if err != nil {
		return nil, err
	}
	body, err := editableBody(spec, rec, false)
	if err != nil {
		return nil, err
	}
	out, err := s.backend.CreateSettings(ctx, spec.Name, body)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", spec.Name, err)
	}
	return out, nil
}

// UpdateSettings replaces every editable field; fields absent from rec are sent as null.
func (s *SettingsService) UpdateSettings(ctx context.Context, entity string, id int, rec models.SettingsRecord) (models.SettingsRecord, error) {
	spec, err := lookupEntity(entity)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, ErrInvalidID
	}
	body, err := editableBody(spec, rec, true)
	if err != nil {
		return nil, err
	}
	out, err := s.backend.UpdateSettings(ctx, spec.Name, id, body)
	if err != nil {
		return nil, fmt.Errorf("update %s %d: %w", spec.Name, id, err)
	}
	return out, nil
}

func (s *SettingsService) DeleteSettings(ctx context.Context, entity string, id int) error {
	spec, err := lookupEntity(entity)
	if err != nil {
		return err
	}
	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.backend.DeleteSettings(ctx, spec.Name, id); err != nil {
		return fmt.Errorf("delete %s %d: %w", spec.Name, id, err)
	}
	return nil
}

func lookupEntity(entity string) (models.EntitySpec, error) {
	spec, ok := models.SettingsEntities[strings.ToLower(strings.TrimSpace(entity))]
	if !ok {
		return models.EntitySpec{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return spec, nil
}

// editableBody keeps only editable fields of rec after checking the required ones.
// With fill set, missing optional fields are sent as nil.
func editableBody(spec models.EntitySpec, rec models.SettingsRecord, fill bool) (models.SettingsRecord, error) {
	var missing []string
	for _, f := range spec.Required {
		if isBlank(rec[f]) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &ValidationError{Entity: spec.Name, Missing: missing}
	}

	body := make(models.SettingsRecord, len(spec.Required)+len(spec.Optional))
	for _, f := range spec.Editable() {
		v, ok := rec[f]
		if !ok && !fill {
			continue
		}
		body[f] = v
	}
	return body, nil
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case int64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(x)
		return n, err == nil
	}
	return 0, false
}
