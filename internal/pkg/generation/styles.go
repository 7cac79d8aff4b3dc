package generation

// Style identifies one of the fixed photo styles a user can pick.
type Style string

const (
	StyleLinkedIn     Style = "linkedin"
	StyleStartup      Style = "startup"
	StyleCorporate    Style = "corporate"
	StyleCasual       Style = "casual"
	StyleProfessional Style = "professional"
	StyleCV           Style = "cv"
)

// stylePrompts maps each style to the fixed model instruction. The texts are
// configuration data, not logic; they must stay byte-identical across
// deployments so results remain comparable.
var stylePrompts = map[Style]string{
	StyleLinkedIn:     "Transform this person into a professional LinkedIn headshot: clean business attire, neutral professional background, confident expression, high-quality studio lighting, executive portrait style, modern and approachable",
	StyleStartup:      "Transform this person into a modern startup professional photo: smart casual attire, contemporary urban background, approachable expression, natural lighting, tech industry style, innovative and dynamic",
	StyleCorporate:    "Transform this person into a formal corporate executive photo: formal business suit, elegant office background, authoritative expression, premium studio lighting, Fortune 500 executive style, sophisticated and commanding",
	StyleCasual:       "Transform this person into a professional casual photo: relaxed business attire, contemporary background, friendly expression, natural lighting, approachable professional style, modern and personable",
	StyleProfessional: "Transform this person into a high-quality professional portrait: appropriate business attire, clean neutral background, confident expression, professional studio lighting, executive portrait style, polished and authoritative",
	StyleCV:           "Transform this person into a perfect CV/resume headshot: smart professional attire appropriate for job applications, trustworthy and competent appearance, clean neutral background (white or light gray), friendly yet professional expression, even lighting that shows facial features clearly, polished finish suitable for job applications and professional documents",
}

// AllStyles lists the supported styles in display order.
var AllStyles = []Style{
	StyleLinkedIn, StyleStartup, StyleCorporate,
	StyleCasual, StyleProfessional, StyleCV,
}

// IsKnownStyle reports whether s is one of the supported styles.
func IsKnownStyle(s Style) bool {
	_, ok := stylePrompts[s]
	return ok
}

// PromptForStyle returns the model instruction for a style. Unrecognized
// styles fall back to the LinkedIn prompt; callers that want to reject
// unknown input should check IsKnownStyle first.
func PromptForStyle(s Style) string {
	if prompt, ok := stylePrompts[s]; ok {
		return prompt
	}
	return stylePrompts[StyleLinkedIn]
}
