package api

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/sceneindex/markerd/internal/models"
)

func TestParseAddParams(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/add?metadataId=5&start=1000&end=2000&type=intro&final=0", nil)
	p, err := parseAddParams(r)
	if err != nil {
		t.Fatalf("parseAddParams() error = %v", err)
	}
	if p.ParentID != 5 || p.Start != 1000 || p.End != 2000 || p.Type != models.MarkerIntro || p.Final {
		t.Fatalf("parseAddParams() = %+v", p)
	}
}

func TestParseAddParamsMissingField(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/add?start=1000&end=2000&type=intro", nil)
	if _, err := parseAddParams(r); !errors.Is(err, ErrMissingParam) {
		t.Fatalf("parseAddParams() error = %v, want ErrMissingParam", err)
	}
}

func TestParseAddParamsInvalidType(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/add?metadataId=5&start=1000&end=2000&type=bogus", nil)
	if _, err := parseAddParams(r); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("parseAddParams() error = %v, want ErrInvalidParam", err)
	}
}

func TestParseAddParamsFinalFlag(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/add?metadataId=5&start=1000&end=2000&type=credits&final=1", nil)
	p, err := parseAddParams(r)
	if err != nil {
		t.Fatalf("parseAddParams() error = %v", err)
	}
	if !p.Final {
		t.Fatal("Final = false, want true")
	}
}

func TestParseShiftParamsUniformShift(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/shift?id=1&shift=3000", nil)
	p, err := parseShiftParams(r)
	if err != nil {
		t.Fatalf("parseShiftParams() error = %v", err)
	}
	if p.StartShift != 3000 || p.EndShift != 3000 {
		t.Fatalf("parseShiftParams() = %+v, want both deltas 3000", p)
	}
}

func TestParseShiftParamsSplitShift(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/shift?id=1&startShift=1000&endShift=-2000&force=1&ignored=3,4,5", nil)
	p, err := parseShiftParams(r)
	if err != nil {
		t.Fatalf("parseShiftParams() error = %v", err)
	}
	if p.StartShift != 1000 || p.EndShift != -2000 || !p.Force {
		t.Fatalf("parseShiftParams() = %+v", p)
	}
	if len(p.Ignored) != 3 || p.Ignored[0] != 3 || p.Ignored[2] != 5 {
		t.Fatalf("Ignored = %v, want [3 4 5]", p.Ignored)
	}
}

func TestParseShiftParamsMissingDelta(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/shift?id=1", nil)
	if _, err := parseShiftParams(r); !errors.Is(err, ErrMissingParam) {
		t.Fatalf("parseShiftParams() error = %v, want ErrMissingParam", err)
	}
}

func TestParseQueryParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/query?keys=1,2,3", nil)
	p, err := parseQueryParams(r)
	if err != nil {
		t.Fatalf("parseQueryParams() error = %v", err)
	}
	if len(p.Keys) != 3 {
		t.Fatalf("Keys = %v, want 3 entries", p.Keys)
	}
}

func TestParseQueryParamsEmpty(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/query", nil)
	if _, err := parseQueryParams(r); !errors.Is(err, ErrMissingParam) {
		t.Fatalf("parseQueryParams() error = %v, want ErrMissingParam", err)
	}
}

func TestParseGetSectionParamsFilter(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/get_section?id=1&filter=show", nil)
	p, err := parseGetSectionParams(r)
	if err != nil {
		t.Fatalf("parseGetSectionParams() error = %v", err)
	}
	if p.Filter != models.ItemShow {
		t.Fatalf("Filter = %v, want show", p.Filter)
	}
}

func TestParseGetSectionParamsInvalidFilter(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/get_section?id=1&filter=episode", nil)
	if _, err := parseGetSectionParams(r); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("parseGetSectionParams() error = %v, want ErrInvalidParam", err)
	}
}

func TestParsePurgeMarkerParams(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/restore?markerId=10&sectionId=2", nil)
	p, err := parsePurgeMarkerParams(r)
	if err != nil {
		t.Fatalf("parsePurgeMarkerParams() error = %v", err)
	}
	if p.MarkerID != 10 || p.SectionID != 2 {
		t.Fatalf("parsePurgeMarkerParams() = %+v", p)
	}
}

func TestCSVInt64sTrimsAndSkipsEmpty(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/query?keys=1,%202,3,", nil)
	out, err := csvInt64s(r, "keys")
	if err != nil {
		t.Fatalf("csvInt64s() error = %v", err)
	}
	want := []int64{1, 2, 3}
	if len(out) != len(want) {
		t.Fatalf("csvInt64s() = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("csvInt64s() = %v, want %v", out, want)
		}
	}
}

func TestBoolFlagRejectsNonBinary(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/add?final=2", nil)
	if _, err := boolFlag(r, "final"); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("boolFlag() error = %v, want ErrInvalidParam", err)
	}
}
