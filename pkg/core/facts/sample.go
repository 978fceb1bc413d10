package facts

import "sort"

// nestedSampleFacts bounds per-unit facts inside a sample. The sample is
// analysis input for the oracle only, never returned to a caller.
const nestedSampleFacts = 3

// Sample builds a bounded representation of dataset for the guidance
// request: at most maxConcepts concepts per taxonomy, each with at most
// maxFacts facts per unit, preserving the concept hierarchy. Concept names
// are taken in sorted order so the sample is deterministic.
func Sample(dataset Dataset, maxConcepts, maxFacts int) Dataset {
	if maxConcepts <= 0 {
		maxConcepts = 10
	}
	if maxFacts <= 0 {
		maxFacts = nestedSampleFacts
	}

	sample := Dataset{
		CIK:        dataset.CIK,
		EntityName: dataset.EntityName,
		Facts:      make(map[string]map[string]Concept, len(dataset.Facts)),
	}

	for taxonomy, concepts := range dataset.Facts {
		names := make([]string, 0, len(concepts))
		for name := range concepts {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) > maxConcepts {
			names = names[:maxConcepts]
		}

		sampled := make(map[string]Concept, len(names))
		for _, name := range names {
			concept := concepts[name]
			units := make(map[string][]Fact, len(concept.Units))
			for unit, values := range concept.Units {
				if len(values) > maxFacts {
					trimmed := make([]Fact, maxFacts)
					copy(trimmed, values[:maxFacts])
					units[unit] = trimmed
				} else {
					units[unit] = values
				}
			}
			sampled[name] = Concept{Label: concept.Label, Units: units}
		}
		sample.Facts[taxonomy] = sampled
	}

	return sample
}
