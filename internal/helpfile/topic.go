package helpfile

// DefaultMessages are the base-language message-id templates this
// package itself relies on, matching helpfile.c's own msgtab plus the
// MSG_TOPIC_UNKNOWN fallback send_help reaches for. Callers register
// these (and their own) with Catalog.RegisterTable at startup.
var DefaultMessages = map[string]string{
	"HFMSG_MISSING_HELPFILE": "The help file could not be found.  Sorry!",
	"MSG_TOPIC_UNKNOWN":      "No help is available on that topic.",
}

// Topics is one loaded helpfile: per-language topic->template maps plus
// the expansion callback specific to this helpfile, matching struct
// helpfile's {name, db, expand} plus the per-language copies
// language_read installs into each language's helpfiles dict.
type Topics struct {
	Name   string
	Expand ExpandFunc

	// byLanguage maps a language name to that language's topic->template
	// overrides. The base language is keyed "C".
	byLanguage map[string]map[string]string
}

// NewTopics constructs an empty Topics named name.
func NewTopics(name string, expand ExpandFunc) *Topics {
	return &Topics{
		Name:       name,
		Expand:     expand,
		byLanguage: map[string]map[string]string{"C": make(map[string]string)},
	}
}

// SetTopic registers template under topic for language (creating that
// language's override map on first use).
func (t *Topics) SetTopic(language, topic, template string) {
	m, ok := t.byLanguage[language]
	if !ok {
		m = make(map[string]string)
		t.byLanguage[language] = m
	}
	m[topic] = template
}

// Help renders topic (the base-language "<index>" topic if topic is
// empty) for rcpt, walking lang's parent chain for the first language
// that has an override, then falling back to this helpfile's own
// "<missing>" entry, then to the MSG_TOPIC_UNKNOWN catalog message,
// matching send_help.
func (r *Renderer) Help(rcpt *Recipient, src string, topics *Topics, lang *Language, topic string) {
	if topic == "" {
		topic = "<index>"
	}
	if lang == nil {
		lang = r.Catalog.Base()
	}
	for cur := lang; cur != nil; cur = cur.Parent {
		if m, ok := topics.byLanguage[cur.Name]; ok {
			if tmpl, ok := m[topic]; ok {
				r.Render(rcpt, src, KindNotice, tmpl, topics.Expand)
				return
			}
		}
	}
	if m, ok := topics.byLanguage["C"]; ok {
		if tmpl, ok := m["<missing>"]; ok {
			r.Render(rcpt, src, KindNotice, tmpl, topics.Expand)
			return
		}
	}
	if r.Message(rcpt, src, KindNotice, "MSG_TOPIC_UNKNOWN", nil) {
		return
	}
	r.Render(rcpt, src, KindNotice, DefaultMessages["MSG_TOPIC_UNKNOWN"], nil)
}
