package service

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rmachado/inventra/internal/domain"
)

// Components compared by deep equality of the whole document. Any difference
// yields a single entry carrying the full before/after.
var deepComponents = []struct {
	key   string
	label string
}{
	{domain.ComponentCPU, "CPU"},
	{domain.ComponentRAM, "RAM"},
	{domain.ComponentGPU, "GPU"},
	{domain.ComponentMotherboard, "Placa-mãe"},
}

// DetectChanges compares two consecutive snapshot documents for a device and
// returns one history entry per detected change. A component missing from
// either side compares as an empty document, so dropping a whole component
// is reported as a change rather than silently ignored. Both documents are
// expected in decoded-JSON form (maps, slices, strings, float64).
func DetectChanges(deviceID uuid.UUID, oldDoc, newDoc map[string]interface{}, at time.Time) []*domain.HistoryLog {
	var entries []*domain.HistoryLog
	add := func(component, desc, before, after string) {
		entries = append(entries, &domain.HistoryLog{
			DeviceID:    deviceID,
			Timestamp:   at,
			Component:   component,
			Description: desc,
			Before:      before,
			After:       after,
			Actor:       "agent",
		})
	}

	for _, c := range deepComponents {
		oldVal := orEmpty(oldDoc[c.key])
		newVal := orEmpty(newDoc[c.key])
		if !reflect.DeepEqual(oldVal, newVal) {
			add(c.label, c.label+" alterado", marshalValue(oldVal), marshalValue(newVal))
		}
	}

	diffDisks(oldDoc[domain.ComponentDisk], newDoc[domain.ComponentDisk], add)
	diffUSB(oldDoc[domain.ComponentUSB], newDoc[domain.ComponentUSB], add)
	diffSoftware(oldDoc[domain.ComponentSoftware], newDoc[domain.ComponentSoftware], add)

	return entries
}

// diffDisks compares disk lists keyed by disk name: removed, then added,
// then modified, one entry per disk.
func diffDisks(oldVal, newVal interface{}, add func(component, desc, before, after string)) {
	oldDisks := keyedByName(oldVal)
	newDisks := keyedByName(newVal)

	for _, name := range onlyIn(oldDisks, newDisks) {
		add("Discos (Removido)", fmt.Sprintf("Disco %q removido", name), marshalValue(oldDisks[name]), "")
	}
	for _, name := range onlyIn(newDisks, oldDisks) {
		add("Discos (Adicionado)", fmt.Sprintf("Disco %q adicionado", name), "", marshalValue(newDisks[name]))
	}
	for _, name := range inBoth(oldDisks, newDisks) {
		if !reflect.DeepEqual(oldDisks[name], newDisks[name]) {
			add(fmt.Sprintf("Discos (%s)", name), fmt.Sprintf("Disco %q alterado", name),
				marshalValue(oldDisks[name]), marshalValue(newDisks[name]))
		}
	}
}

// diffUSB treats USB entries as atomic: set difference by device name only,
// no modified case. Entries may be plain strings or documents with a name.
func diffUSB(oldVal, newVal interface{}, add func(component, desc, before, after string)) {
	oldNames := usbNames(oldVal)
	newNames := usbNames(newVal)

	for _, name := range onlyIn(oldNames, newNames) {
		add("Dispositivos USB (Removido)", fmt.Sprintf("Dispositivo %q removido", name), name, "")
	}
	for _, name := range onlyIn(newNames, oldNames) {
		add("Dispositivos USB (Adicionado)", fmt.Sprintf("Dispositivo %q adicionado", name), "", name)
	}
}

// diffSoftware compares installed software keyed by name. A version change
// is a single modified entry, never remove+add. Additions are labeled
// "Instalado" for this component only.
func diffSoftware(oldVal, newVal interface{}, add func(component, desc, before, after string)) {
	oldSW := keyedByName(oldVal)
	newSW := keyedByName(newVal)

	for _, name := range onlyIn(oldSW, newSW) {
		add("Software (Removido)", fmt.Sprintf("%q removido", name), marshalValue(oldSW[name]), "")
	}
	for _, name := range onlyIn(newSW, oldSW) {
		add("Software (Instalado)", fmt.Sprintf("%q instalado", name), "", marshalValue(newSW[name]))
	}
	for _, name := range inBoth(oldSW, newSW) {
		oldVer := versionOf(oldSW[name])
		newVer := versionOf(newSW[name])
		if oldVer != newVer {
			add(fmt.Sprintf("Software (%s)", name),
				fmt.Sprintf("%q atualizado de %s para %s", name, orDash(oldVer), orDash(newVer)),
				marshalValue(oldSW[name]), marshalValue(newSW[name]))
		}
	}
}

// keyedByName indexes a decoded list of documents by their "name" field.
// Items that are not documents are skipped; a missing name keys as "".
func keyedByName(v interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	list, _ := v.([]interface{})
	for _, item := range list {
		doc, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := doc["name"].(string)
		out[name] = doc
	}
	return out
}

func usbNames(v interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	list, _ := v.([]interface{})
	for _, item := range list {
		switch dev := item.(type) {
		case string:
			out[dev] = dev
		case map[string]interface{}:
			if name, ok := dev["name"].(string); ok {
				out[name] = name
			}
		}
	}
	return out
}

// onlyIn returns the keys of a that are absent from b, sorted for
// deterministic output.
func onlyIn(a, b map[string]interface{}) []string {
	var keys []string
	for k := range a {
		if _, ok := b[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func inBoth(a, b map[string]interface{}) []string {
	var keys []string
	for k := range a {
		if _, ok := b[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func versionOf(v interface{}) string {
	doc, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	ver, ok := doc["version"]
	if !ok || ver == nil {
		return ""
	}
	return fmt.Sprint(ver)
}

func orEmpty(v interface{}) interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func marshalValue(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
