package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestResult(t *testing.T) {
	if Result(nil) != "ok" {
		t.Error("Result(nil) != ok")
	}
	if Result(errors.New("boom")) != "error" {
		t.Error("Result(err) != error")
	}
}

func scrape(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestObserveFetch(t *testing.T) {
	ObserveFetch("test-source", time.Now(), errors.New("boom"))

	body := scrape(t)
	for _, want := range []string{
		`prayertimer_timetable_fetches_total{result="error",source="test-source"} 1`,
		`prayertimer_timetable_fetch_seconds_count{source="test-source"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestHandler(t *testing.T) {
	Calculations.WithLabelValues("engine", "ok").Inc()

	if !strings.Contains(scrape(t), "prayertimer_calculations_total") {
		t.Error("metrics output missing prayertimer_calculations_total")
	}
}
