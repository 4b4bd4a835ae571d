// Package corpus holds the fixed benchmark command catalog: a small smart
// home of lights, switches, locks and fans, natural-language phrasings for
// acting on and querying them, and a set of deliberately broken utterances.
package corpus

import (
	"fmt"
	"strings"

	"github.com/shaynamir/archbench/archbench"
)

// Device is one fixture device of the benchmark home.
type Device struct {
	Name     string
	Domain   string
	EntityID string
}

// Devices returns the full fixture catalog. The set is fixed; commands are
// generated from it and scoring depends on the entity ids staying stable.
func Devices() []Device {
	return []Device{
		{Name: "Bed Light", Domain: "light", EntityID: "light.bed_light"},
		{Name: "Ceiling Lights", Domain: "light", EntityID: "light.ceiling_lights"},
		{Name: "Kitchen Lights", Domain: "light", EntityID: "light.kitchen_lights"},
		{Name: "Office Lights", Domain: "light", EntityID: "light.office_lights"},
		{Name: "Living Room Lights", Domain: "light", EntityID: "light.living_room_lights"},
		{Name: "Entrance Lights", Domain: "light", EntityID: "light.entrance_lights"},
		{Name: "Decorative Lights", Domain: "switch", EntityID: "switch.decorative_lights"},
		{Name: "Front Door", Domain: "lock", EntityID: "lock.front_door"},
		{Name: "Kitchen Door", Domain: "lock", EntityID: "lock.kitchen_door"},
		{Name: "Openable Lock", Domain: "lock", EntityID: "lock.openable_lock"},
		{Name: "Living Room Fan", Domain: "fan", EntityID: "fan.living_room_fan"},
		{Name: "Ceiling Fan", Domain: "fan", EntityID: "fan.ceiling_fan"},
		{Name: "Percentage Full Fan", Domain: "fan", EntityID: "fan.percentage_full_fan"},
		{Name: "Percentage Limited Fan", Domain: "fan", EntityID: "fan.percentage_limited_fan"},
		{Name: "Preset Only Limited Fan", Domain: "fan", EntityID: "fan.preset_only_limited_fan"},
	}
}

// EntityID resolves a friendly device name to its entity id.
func EntityID(name string) (string, bool) {
	for _, d := range Devices() {
		if strings.EqualFold(d.Name, name) {
			return d.EntityID, true
		}
	}
	return "", false
}

var turnOnTemplates = []string{
	"turn on the %s",
	"switch on the %s",
	"power on the %s",
	"please turn on the %s",
	"can you turn on the %s",
	"enable the %s",
	"activate the %s",
}

var turnOffTemplates = []string{
	"turn off the %s",
	"switch off the %s",
	"power off the %s",
	"please turn off the %s",
	"can you turn off the %s",
	"disable the %s",
	"deactivate the %s",
}

var lockTemplates = []string{
	"lock the %s",
	"please lock the %s",
	"secure the %s",
	"engage the lock on the %s",
}

var unlockTemplates = []string{
	"unlock the %s",
	"please unlock the %s",
	"open the %s",
	"unsecure the %s",
}

var fanStartTemplates = []string{
	"start the %s",
	"spin up the %s",
	"run the %s",
}

var fanStopTemplates = []string{
	"stop the %s",
	"halt the %s",
	"stop running the %s",
}

var statusTemplates = []string{
	"what is the state of the %s?",
	"what's the status of the %s?",
	"is the %s on?",
	"is the %s off?",
	"check the %s status",
	"tell me the current state of the %s",
}

var lockStatusTemplates = []string{
	"is the %s locked?",
	"is the %s unlocked?",
	"what is the status of the %s?",
	"check if the %s is secure",
}

// errorUtterances reference devices that do not exist or are too vague to
// resolve. Their expected entity set is empty.
var errorUtterances = []string{
	"turn on the garden light",
	"switch off the hallway lamp",
	"activate the balcony lights",
	"please power on the garage light",
	"unlock the back gate",
	"lock the safe room door",
	"turn on the bathroom fan",
	"stop the attic fan",
	"turn it on",
	"turn it off",
	"switch that one on",
	"please activate",
	"do the thing",
}

// All generates the full command catalog in a deterministic order with
// deterministic ids, so a resumed run maps commands to prior records by id.
func All() []archbench.Command {
	var out []archbench.Command

	add := func(cat archbench.Category, d Device, text string) {
		slug := strings.ReplaceAll(d.EntityID, ".", "-")
		if d.EntityID == "" {
			slug = "unknown"
		}
		out = append(out, archbench.Command{
			ID:       fmt.Sprintf("%s-%s-%02d", cat, slug, countFor(out, cat, slug)),
			Text:     text,
			Category: cat,
			Domain:   d.Domain,
			Device:   d.Name,
			ExpectedEntities: func() []string {
				if d.EntityID == "" {
					return nil
				}
				return []string{d.EntityID}
			}(),
		})
	}

	for _, d := range Devices() {
		lower := strings.ToLower(d.Name)
		switch d.Domain {
		case "light", "switch":
			for _, t := range turnOnTemplates {
				add(archbench.CategoryAction, d, fmt.Sprintf(t, lower))
			}
			for _, t := range turnOffTemplates {
				add(archbench.CategoryAction, d, fmt.Sprintf(t, lower))
			}
			for _, t := range statusTemplates {
				add(archbench.CategoryStatus, d, fmt.Sprintf(t, lower))
			}
		case "lock":
			for _, t := range lockTemplates {
				add(archbench.CategoryAction, d, fmt.Sprintf(t, lower))
			}
			for _, t := range unlockTemplates {
				add(archbench.CategoryAction, d, fmt.Sprintf(t, lower))
			}
			for _, t := range lockStatusTemplates {
				add(archbench.CategoryStatus, d, fmt.Sprintf(t, lower))
			}
		case "fan":
			for _, t := range append(append([]string{}, turnOnTemplates...), fanStartTemplates...) {
				add(archbench.CategoryAction, d, fmt.Sprintf(t, lower))
			}
			for _, t := range append(append([]string{}, turnOffTemplates...), fanStopTemplates...) {
				add(archbench.CategoryAction, d, fmt.Sprintf(t, lower))
			}
			for _, t := range statusTemplates {
				add(archbench.CategoryStatus, d, fmt.Sprintf(t, lower))
			}
		}
	}

	for _, text := range errorUtterances {
		add(archbench.CategoryError, Device{Domain: "unknown", Name: "unknown"}, text)
	}
	return out
}

// countFor numbers commands within a (category, device) group.
func countFor(cmds []archbench.Command, cat archbench.Category, slug string) int {
	n := 0
	prefix := fmt.Sprintf("%s-%s-", cat, slug)
	for _, c := range cmds {
		if strings.HasPrefix(c.ID, prefix) {
			n++
		}
	}
	return n
}
