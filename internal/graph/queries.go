package graph

import "fmt"

// locationQuery resolves a Wikipedia page IRI to the resource it describes.
func locationQuery(page string) string {
	return fmt.Sprintf(`SELECT DISTINCT ?Location, ?Name, ?Abstract, ?Image WHERE {
  ?Location foaf:isPrimaryTopicOf <%s> .
  ?Location dbo:abstract ?Abstract .
  OPTIONAL {
    ?Location foaf:name ?Name .
    FILTER langMatches ( lang(?Name), "EN" )
  }
  OPTIONAL {
    ?Location dbo:thumbnail ?Image
  }
  FILTER langMatches( lang(?Abstract), "EN" )
}
LIMIT 1`, page)
}

// hop is one way a band can be tied to a place: by hometown or birthplace,
// directly or through up to two dbo:isPartOf links.
type hop struct {
	property string
	depth    int
}

var hops = []hop{
	{"dbo:hometown", 0}, {"dbo:hometown", 1}, {"dbo:hometown", 2},
	{"dbo:birthPlace", 0}, {"dbo:birthPlace", 1}, {"dbo:birthPlace", 2},
}

func (h hop) pattern(location string) string {
	const head = "    ?Band foaf:name ?Name .\n    ?Band a schema:MusicGroup .\n"
	switch h.depth {
	case 0:
		return head + fmt.Sprintf("    ?Band %s <%s>\n", h.property, location)
	case 1:
		return head + fmt.Sprintf("    ?Band %s ?p1 .\n    ?p1 dbo:isPartOf <%s>\n", h.property, location)
	default:
		return head + fmt.Sprintf("    ?Band %s ?p1 .\n    ?p1 dbo:isPartOf ?p2 .\n    ?p2 dbo:isPartOf <%s>\n", h.property, location)
	}
}

// bandsQuery lists music groups tied to location.
func bandsQuery(location string) string {
	q := "SELECT ?Band, ?Name WHERE {\n"
	for i, h := range hops {
		if i > 0 {
			q += "  UNION "
		} else {
			q += "  "
		}
		q += "{\n" + h.pattern(location) + "  }\n"
	}
	return q + "}"
}
