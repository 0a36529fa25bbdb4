package core

import (
	"context"
	"sort"
	"strings"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/models"
	"go.uber.org/zap"
)

// englishLang is the language every translation is made from
const englishLang = "en"

// StringsResult is one page of current revisions
type StringsResult struct {
	Revisions []*models.Revision
	Total     int // matches ignoring Limit and Offset
}

// Strings returns the current revisions matching the filter
func (e *Engine) Strings(ctx context.Context, f models.StringFilter) (*StringsResult, error) {
	if f.GreylistedOnly && f.WithoutGreylisted {
		return nil, lerrors.Validation("greylisted-only and without-greylisted are mutually exclusive")
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, lerrors.Validation("limit and offset must not be negative")
	}

	revisions, err := e.store.CurrentBatch(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := e.store.CountCurrent(ctx, f)
	if err != nil {
		return nil, err
	}
	return &StringsResult{Revisions: revisions, Total: total}, nil
}

// Current returns the current revision of a key, nil if never committed
func (e *Engine) Current(ctx context.Context, key models.Key) (*models.Revision, error) {
	if err := validateKeys(key); err != nil {
		return nil, err
	}
	return e.store.Current(ctx, key)
}

// Translate pairs each English string matching the filter with its current
// translation in every requested language
func (e *Engine) Translate(ctx context.Context, f models.TranslatorFilter) (*models.TranslatorPage, error) {
	var langs []string
	for _, lang := range f.Langs {
		if lang != englishLang {
			langs = append(langs, lang)
		}
	}
	if len(langs) == 0 {
		return nil, lerrors.Validation("at least one target language other than %q is required", englishLang)
	}
	sort.Strings(langs)
	if f.GreylistedOnly && f.WithoutGreylisted {
		return nil, lerrors.Validation("greylisted-only and without-greylisted are mutually exclusive")
	}

	perPage := f.PerPage
	if perPage <= 0 {
		perPage = e.opts.TranslatorPerPage
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}

	originals, err := e.store.CurrentBatch(ctx, models.StringFilter{
		Branches:          f.Branches,
		Langs:             []string{englishLang},
		Components:        f.Components,
		StringID:          f.StringID,
		GreylistedOnly:    f.GreylistedOnly,
		WithoutGreylisted: f.WithoutGreylisted,
		HelpsOnly:         f.HelpsOnly,
	})
	if err != nil {
		return nil, err
	}

	translated, err := e.store.CurrentBatch(ctx, models.StringFilter{
		Branches:       f.Branches,
		Langs:          langs,
		Components:     f.Components,
		StringID:       f.StringID,
		IncludeDeleted: true,
	})
	if err != nil {
		return nil, err
	}
	translations := make(map[models.Key]*models.Revision, len(translated))
	for _, rev := range translated {
		translations[rev.Key] = rev
	}

	greylisted, err := e.greylistSet(ctx)
	if err != nil {
		return nil, err
	}

	apps, workplace := map[string]string{}, map[string]string{}
	if e.catalog != nil {
		if apps, err = e.catalog.AppStrings(ctx); err != nil {
			return nil, err
		}
		if workplace, err = e.catalog.WorkplaceStrings(ctx); err != nil {
			return nil, err
		}
	}

	needle := strings.ToLower(f.Substring)
	result := &models.TranslatorPage{Page: page}
	var rows []*models.TranslatorRow
	for _, orig := range originals {
		for _, lang := range langs {
			key := orig.Key
			key.Lang = lang

			row := &models.TranslatorRow{
				Key:         key,
				Original:    orig,
				Translation: translations[key],
				Greylisted:  greylisted[greylistKey(key)],
				AppID:       apps[key.Component+"/"+key.StringID],
				WorkplaceID: workplace[key.Component+"/"+key.StringID],
			}
			if tr := row.Translation; tr != nil && !tr.Deleted {
				row.Outdated = orig.Modified.After(tr.Modified)
			}

			if needle != "" && !containsFold(orig.Text, needle) && !containsFold(row.Translation.Value(), needle) {
				continue
			}
			if f.MissingOrOutdated && !row.Missing() && !row.Outdated {
				continue
			}
			if row.Missing() {
				result.Missing++
			}
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Key.Less(rows[j].Key) })

	result.Found = len(rows)
	result.Pages = (result.Found + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start < len(rows) {
		end := min(start+perPage, len(rows))
		result.Rows = rows[start:end]
	}

	e.logger.Debug("translator query",
		zap.Strings("langs", langs),
		zap.Int("found", result.Found),
		zap.Int("missing", result.Missing),
	)
	return result, nil
}

func containsFold(text *string, lowerNeedle string) bool {
	return text != nil && strings.Contains(strings.ToLower(*text), lowerNeedle)
}

// greylistKey drops the language, which the greylist does not track
func greylistKey(k models.Key) models.Key {
	k.Lang = ""
	return k
}

func (e *Engine) greylistSet(ctx context.Context) (map[models.Key]bool, error) {
	keys, err := e.store.GreylistedKeys(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[models.Key]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set, nil
}

// Greylist marks a string as not worth translating on its branch
func (e *Engine) Greylist(ctx context.Context, key models.Key) error {
	if err := validateGreylistKey(key); err != nil {
		return err
	}
	if err := e.store.Greylist(ctx, key); err != nil {
		return err
	}
	e.logger.Info("greylisted", zap.Stringer("key", greylistKey(key)))
	return nil
}

// Ungreylist removes a string from the greylist
func (e *Engine) Ungreylist(ctx context.Context, key models.Key) error {
	if err := validateGreylistKey(key); err != nil {
		return err
	}
	if err := e.store.Ungreylist(ctx, key); err != nil {
		return err
	}
	e.logger.Info("ungreylisted", zap.Stringer("key", greylistKey(key)))
	return nil
}

// GreylistedKeys lists the greylisted strings; their Lang is empty
func (e *Engine) GreylistedKeys(ctx context.Context) ([]models.Key, error) {
	return e.store.GreylistedKeys(ctx)
}

// validateGreylistKey validates a key whose language may be empty
func validateGreylistKey(key models.Key) error {
	if key.Lang == "" {
		key.Lang = englishLang
	}
	return key.Validate()
}
