package service

import (
	"testing"
	"time"

	"github.com/rmachado/inventra/internal/domain"
)

func TestNewDevice_Defaults(t *testing.T) {
	now := time.Now()
	d := newDevice(&domain.Snapshot{IPAddress: "10.0.0.1"}, now)

	if d.DeviceType != "unknown" || d.Status != domain.StatusUnknown {
		t.Fatalf("expected unknown defaults, got %q/%q", d.DeviceType, d.Status)
	}
	if !d.LastSeen.Equal(now) {
		t.Fatal("expected last seen set")
	}
}

func TestApplySnapshot_OmittedFieldsUntouched(t *testing.T) {
	mac := "aa:bb:cc:dd:ee:ff"
	d := &domain.Device{
		Name:       "old-name",
		IPAddress:  "10.0.0.1",
		MACAddress: &mac,
		OS:         "Ubuntu 22.04",
		Status:     domain.StatusOnline,
	}

	now := time.Now()
	applySnapshot(d, &domain.Snapshot{
		IPAddress: "10.0.0.2",
		Status:    strPtr(domain.StatusOffline),
	}, now)

	if d.IPAddress != "10.0.0.2" || d.Status != domain.StatusOffline {
		t.Fatalf("supplied fields must overwrite: %+v", d)
	}
	if d.Name != "old-name" || d.OS != "Ubuntu 22.04" || d.MACAddress == nil {
		t.Fatalf("omitted fields must be kept: %+v", d)
	}
	if !d.LastSeen.Equal(now) {
		t.Fatal("expected last seen refreshed")
	}
}

func TestMergeHardware_NothingToPersist(t *testing.T) {
	if hw := mergeHardware(nil, nil, nil); hw != nil {
		t.Fatalf("expected nil, got %+v", hw)
	}
}

func TestMergeHardware_CreatesWhenMissing(t *testing.T) {
	hw := mergeHardware(nil, domain.ComponentMap{"cpu_info": "x"}, nil)
	if hw == nil || hw.Components["cpu_info"] != "x" {
		t.Fatalf("expected new hardware document, got %+v", hw)
	}
}

func TestMergeHardware_ComponentReplacedWholesale(t *testing.T) {
	existing := &domain.HardwareDetail{
		Components: domain.ComponentMap{
			"ram_info": map[string]interface{}{"total_gb": 16, "slots": 4},
			"gpu_info": map[string]interface{}{"model": "rtx"},
		},
	}

	hw := mergeHardware(existing, domain.ComponentMap{
		"ram_info": map[string]interface{}{"total_gb": 32},
	}, nil)

	ram, _ := hw.Components["ram_info"].(map[string]interface{})
	if _, ok := ram["slots"]; ok {
		t.Fatal("no recursive merge inside a component: stored sub-keys must not leak through")
	}
	if _, ok := hw.Components["gpu_info"]; !ok {
		t.Fatal("unmentioned component must be kept")
	}
}

func TestMergeHardware_NotesOnly(t *testing.T) {
	existing := &domain.HardwareDetail{Components: domain.ComponentMap{"cpu_info": "x"}}
	notes := "etiqueta 42"

	hw := mergeHardware(existing, nil, &notes)
	if hw.CustomNotes != "etiqueta 42" {
		t.Fatalf("expected notes set, got %q", hw.CustomNotes)
	}
	if hw.Components["cpu_info"] != "x" {
		t.Fatal("components must be untouched")
	}
}
