package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sceneindex/markerd/internal/models"
)

// requiredInt64 reads an integer query parameter, failing if it is absent
// or does not parse.
func requiredInt64(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParam, key, raw)
	}
	return v, nil
}

// optionalInt64 reads an integer query parameter, returning def if absent.
func optionalInt64(r *http.Request, key string, def int64) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParam, key, raw)
	}
	return v, nil
}

// boolFlag parses a 0/1 integer query parameter into a bool, defaulting to
// false when absent (spec §6: `final:int(0/1)`, `force:int`).
func boolFlag(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	switch raw {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s=%q must be 0 or 1", ErrInvalidParam, key, raw)
	}
}

// csvInt64s parses a comma-separated list of ints, e.g. `keys` or `ignored`.
// An absent or empty parameter yields a nil slice, not an error.
func csvInt64s(r *http.Request, key string) ([]int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s contains non-integer %q", ErrInvalidParam, key, p)
		}
		out = append(out, v)
	}
	return out, nil
}

// markerType parses and validates the `type` parameter against the three
// recognized marker types.
func markerType(r *http.Request, key string) (models.MarkerType, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	t := models.MarkerType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %s=%q is not intro, credits, or commercial", ErrInvalidParam, key, raw)
	}
	return t, nil
}

// itemTypeFilter parses the optional `filter` parameter of get_section into
// an ItemType, defaulting to the zero value (no filter) when absent.
func itemTypeFilter(r *http.Request) (models.ItemType, error) {
	raw := r.URL.Query().Get("filter")
	if raw == "" {
		return "", nil
	}
	switch models.ItemType(raw) {
	case models.ItemShow, models.ItemMovie:
		return models.ItemType(raw), nil
	default:
		return "", fmt.Errorf("%w: filter=%q is not show or movie", ErrInvalidParam, raw)
	}
}

// QueryParams is the `query` operation's parameter object: parentIds to
// look markers up for.
type QueryParams struct {
	Keys []int64
}

func parseQueryParams(r *http.Request) (QueryParams, error) {
	keys, err := csvInt64s(r, "keys")
	if err != nil {
		return QueryParams{}, err
	}
	if len(keys) == 0 {
		return QueryParams{}, fmt.Errorf("%w: keys", ErrMissingParam)
	}
	return QueryParams{Keys: keys}, nil
}

// AddParams is the `add` operation's parameter object.
type AddParams struct {
	ParentID int64
	Start    int64
	End      int64
	Type     models.MarkerType
	Final    bool
}

func parseAddParams(r *http.Request) (AddParams, error) {
	parentID, err := requiredInt64(r, "metadataId")
	if err != nil {
		return AddParams{}, err
	}
	start, err := requiredInt64(r, "start")
	if err != nil {
		return AddParams{}, err
	}
	end, err := requiredInt64(r, "end")
	if err != nil {
		return AddParams{}, err
	}
	mt, err := markerType(r, "type")
	if err != nil {
		return AddParams{}, err
	}
	final, err := boolFlag(r, "final")
	if err != nil {
		return AddParams{}, err
	}
	return AddParams{ParentID: parentID, Start: start, End: end, Type: mt, Final: final}, nil
}

// EditParams is the `edit` operation's parameter object. userCreated is
// accepted for wire compatibility but carries no engine semantics: every
// marker the engine stores is already user-created, so it is parsed and
// discarded.
type EditParams struct {
	MarkerID int64
	Start    int64
	End      int64
	Type     models.MarkerType
	Final    bool
}

func parseEditParams(r *http.Request) (EditParams, error) {
	id, err := requiredInt64(r, "id")
	if err != nil {
		return EditParams{}, err
	}
	start, err := requiredInt64(r, "start")
	if err != nil {
		return EditParams{}, err
	}
	end, err := requiredInt64(r, "end")
	if err != nil {
		return EditParams{}, err
	}
	mt, err := markerType(r, "type")
	if err != nil {
		return EditParams{}, err
	}
	final, err := boolFlag(r, "final")
	if err != nil {
		return EditParams{}, err
	}
	if _, err := optionalInt64(r, "userCreated", 0); err != nil {
		return EditParams{}, err
	}
	return EditParams{MarkerID: id, Start: start, End: end, Type: mt, Final: final}, nil
}

// DeleteParams is the `delete` operation's parameter object.
type DeleteParams struct {
	MarkerID int64
}

func parseDeleteParams(r *http.Request) (DeleteParams, error) {
	id, err := requiredInt64(r, "id")
	if err != nil {
		return DeleteParams{}, err
	}
	return DeleteParams{MarkerID: id}, nil
}

// ShiftParams is the `shift` operation's parameter object.
// `shift` sets both StartShift and EndShift to the same delta; the two can
// also be supplied independently.
type ShiftParams struct {
	RootID     int64
	StartShift int64
	EndShift   int64
	Force      bool
	Ignored    []int64
}

func parseShiftParams(r *http.Request) (ShiftParams, error) {
	id, err := requiredInt64(r, "id")
	if err != nil {
		return ShiftParams{}, err
	}

	var startShift, endShift int64
	if raw := r.URL.Query().Get("shift"); raw != "" {
		v, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			return ShiftParams{}, fmt.Errorf("%w: shift=%q", ErrInvalidParam, raw)
		}
		startShift, endShift = v, v
	} else {
		startShift, err = requiredInt64(r, "startShift")
		if err != nil {
			return ShiftParams{}, err
		}
		endShift, err = requiredInt64(r, "endShift")
		if err != nil {
			return ShiftParams{}, err
		}
	}

	force, err := boolFlag(r, "force")
	if err != nil {
		return ShiftParams{}, err
	}
	ignored, err := csvInt64s(r, "ignored")
	if err != nil {
		return ShiftParams{}, err
	}

	return ShiftParams{RootID: id, StartShift: startShift, EndShift: endShift, Force: force, Ignored: ignored}, nil
}

// CheckShiftParams is the `check_shift` operation's parameter object.
type CheckShiftParams struct {
	RootID int64
}

func parseCheckShiftParams(r *http.Request) (CheckShiftParams, error) {
	id, err := requiredInt64(r, "id")
	if err != nil {
		return CheckShiftParams{}, err
	}
	return CheckShiftParams{RootID: id}, nil
}

// GetSectionParams is the `get_section` operation's parameter object.
type GetSectionParams struct {
	SectionID int64
	Filter    models.ItemType
}

func parseGetSectionParams(r *http.Request) (GetSectionParams, error) {
	id, err := requiredInt64(r, "id")
	if err != nil {
		return GetSectionParams{}, err
	}
	filter, err := itemTypeFilter(r)
	if err != nil {
		return GetSectionParams{}, err
	}
	return GetSectionParams{SectionID: id, Filter: filter}, nil
}

// IDParams is the shared parameter shape of get_seasons, get_episodes,
// get_stats, and purge_check: a single required `id`.
type IDParams struct {
	ID int64
}

func parseIDParams(r *http.Request) (IDParams, error) {
	id, err := requiredInt64(r, "id")
	if err != nil {
		return IDParams{}, err
	}
	return IDParams{ID: id}, nil
}

// AllPurgesParams is the `all_purges` operation's parameter object.
type AllPurgesParams struct {
	SectionID int64
}

func parseAllPurgesParams(r *http.Request) (AllPurgesParams, error) {
	id, err := requiredInt64(r, "sectionId")
	if err != nil {
		return AllPurgesParams{}, err
	}
	return AllPurgesParams{SectionID: id}, nil
}

// PurgeMarkerParams is the shared parameter shape of `restore` and
// `ignore_purge`.
type PurgeMarkerParams struct {
	MarkerID  int64
	SectionID int64
}

func parsePurgeMarkerParams(r *http.Request) (PurgeMarkerParams, error) {
	markerID, err := requiredInt64(r, "markerId")
	if err != nil {
		return PurgeMarkerParams{}, err
	}
	sectionID, err := requiredInt64(r, "sectionId")
	if err != nil {
		return PurgeMarkerParams{}, err
	}
	return PurgeMarkerParams{MarkerID: markerID, SectionID: sectionID}, nil
}
