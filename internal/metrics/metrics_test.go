package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveExtraction(t *testing.T) {
	before := testutil.ToFloat64(extractionTotal.WithLabelValues("WOA/temperature", "nearest", ResultOK))
	ObserveExtraction("WOA/temperature", "nearest", ResultOK, 3*time.Millisecond)
	after := testutil.ToFloat64(extractionTotal.WithLabelValues("WOA/temperature", "nearest", ResultOK))
	if after-before != 1 {
		t.Errorf("extraction counter grew by %v, want 1", after-before)
	}
}

func TestObserveMasked(t *testing.T) {
	before := testutil.ToFloat64(maskedVariables.WithLabelValues("CARS/salinity", ReasonDegenerate))
	ObserveMasked("CARS/salinity", ReasonDegenerate)
	ObserveMasked("CARS/salinity", ReasonDegenerate)
	after := testutil.ToFloat64(maskedVariables.WithLabelValues("CARS/salinity", ReasonDegenerate))
	if after-before != 2 {
		t.Errorf("masked counter grew by %v, want 2", after-before)
	}
}

func TestObserveSubset(t *testing.T) {
	ObserveSubset("ETOPO/topography", 1024)
	if n := testutil.CollectAndCount(subsetCells); n == 0 {
		t.Error("subset histogram collected no series")
	}
}
