// Package lexicon holds the phrase tables and signal weights the detectors
// match against. Everything here is tuning data, not logic: the policy file
// can extend the phrase lists and override any weight without code changes.
package lexicon

// Set groups the phrase lists every detector draws from.
type Set struct {
	// Confirmshaming: guilt or loss framing on decline actions.
	ConfirmshamingPhrases []string `yaml:"confirmshaming_phrases"`
	LossWords             []string `yaml:"loss_words"`
	NegationWords         []string `yaml:"negation_words"`

	// Preselection: defaults that benefit the operator.
	PreselectionKeywords []string `yaml:"preselection_keywords"`

	// Hidden costs: price disclosure near checkout.
	CostKeywords     []string `yaml:"cost_keywords"`
	CheckoutKeywords []string `yaml:"checkout_keywords"`
	ExtraChargeWords []string `yaml:"extra_charge_words"`

	// Difficult cancellation.
	CancellationKeywords []string `yaml:"cancellation_keywords"`
	SubscribeKeywords    []string `yaml:"subscribe_keywords"`
	ObstructionPhrases   []string `yaml:"obstruction_phrases"`

	// Misleading ads.
	AdDisclosureWords []string `yaml:"ad_disclosure_words"`
	PromoKeywords     []string `yaml:"promo_keywords"`
	AdHostFragments   []string `yaml:"ad_host_fragments"`

	// False urgency.
	UrgencyKeywords []string `yaml:"urgency_keywords"`
	CountdownHints  []string `yaml:"countdown_hints"`
	ScarcityHints   []string `yaml:"scarcity_hints"`

	// Confusing interface: paired accept/reject actions.
	AcceptWords []string `yaml:"accept_words"`
	RejectWords []string `yaml:"reject_words"`
}

// Default returns the built-in English lexicon.
func Default() *Set {
	return &Set{
		ConfirmshamingPhrases: []string{
			"no thanks, i",
			"i don't want",
			"i do not want",
			"i prefer to pay",
			"i like paying",
			"i enjoy paying",
			"pay full price",
			"i don't care about",
			"i do not care about",
			"i don't need",
			"continue without protection",
			"continue without discount",
			"proceed without benefits",
			"i give up",
			"i'll miss out",
			"i prefer to miss",
			"i accept the risks",
			"i understand the risks",
			"remain a beginner",
			"i don't want to improve",
			"i prefer not to receive help",
			"lose my discount",
		},
		LossWords: []string{
			"miss", "missing", "lose", "losing", "lost", "risk", "risks",
			"danger", "dangerous", "regret", "sorry", "mistake", "wrong",
			"worse", "waste", "wasting", "forfeit", "give up", "unprotected",
			"vulnerable", "exposed", "unsafe", "insecure", "full price",
		},
		NegationWords: []string{
			"no", "not", "don't", "do not", "never", "without", "decline", "refuse",
		},
		PreselectionKeywords: []string{
			"newsletter", "marketing", "promotional", "offers", "partners",
			"third party", "third-party", "subscribe", "subscription",
			"auto-renew", "auto renew", "automatically renew", "renewal",
			"insurance", "protection plan", "warranty", "premium",
			"share my data", "share your data", "personalized ads",
			"express shipping", "priority", "donation", "tips", "add-on",
		},
		CostKeywords: []string{
			"total", "subtotal", "fee", "fees", "charge", "charges",
			"shipping", "handling", "tax", "taxes", "vat", "surcharge",
			"service fee", "processing", "additional cost", "extra cost",
		},
		CheckoutKeywords: []string{
			"checkout", "cart", "basket", "payment", "purchase", "order summary",
			"proceed", "billing", "place order", "pay now",
		},
		ExtraChargeWords: []string{
			"service fee", "processing fee", "booking fee", "handling",
			"surcharge", "convenience fee", "cleaning fee", "resort fee",
		},
		CancellationKeywords: []string{
			"cancel", "cancellation", "unsubscribe", "terminate", "close account",
			"end membership", "end subscription", "opt out", "stop service",
		},
		SubscribeKeywords: []string{
			"subscribe", "sign up", "join now", "start free trial", "try free",
			"become a member", "upgrade",
		},
		ObstructionPhrases: []string{
			"call us to cancel",
			"call to cancel",
			"contact customer service to cancel",
			"contact us to cancel",
			"cancellation by phone",
			"phone only",
			"visit a store to cancel",
			"write to us to cancel",
			"certified mail",
		},
		AdDisclosureWords: []string{
			"ad", "ads", "advertisement", "sponsored", "promoted", "promotion", "paid partnership",
		},
		PromoKeywords: []string{
			"buy now", "limited offer", "best price", "exclusive deal",
			"click here", "free trial", "winner", "congratulations",
			"special offer", "save now", "discount",
		},
		AdHostFragments: []string{
			"doubleclick", "adservice", "adsystem", "taboola", "outbrain",
			"criteo", "adnxs", "googlesyndication", "affiliate", "partner",
			"track", "click.",
		},
		UrgencyKeywords: []string{
			"hurry", "now", "today only", "last chance", "ends soon",
			"expires", "limited time", "almost gone", "don't miss", "act fast",
			"while supplies last", "selling fast",
		},
		CountdownHints: []string{
			"countdown", "timer", "count-down", "deal-timer", "offer-timer", "expires-in",
		},
		ScarcityHints: []string{
			"left in stock", "items left", "only", "remaining", "people are viewing",
			"others are looking", "booked in the last", "sold in the last",
		},
		AcceptWords: []string{
			"accept", "agree", "allow", "yes", "continue", "ok", "enable",
			"subscribe", "sign up", "confirm",
		},
		RejectWords: []string{
			"decline", "reject", "refuse", "no thanks", "no, thanks", "deny",
			"disagree", "disable", "skip", "not now", "cancel", "close",
			"maybe later", "dismiss",
		},
	}
}

// Merge appends extra phrases from a policy override onto the defaults.
// Empty fields leave the defaults untouched.
func (s *Set) Merge(extra *Set) {
	if extra == nil {
		return
	}
	s.ConfirmshamingPhrases = append(s.ConfirmshamingPhrases, extra.ConfirmshamingPhrases...)
	s.LossWords = append(s.LossWords, extra.LossWords...)
	s.NegationWords = append(s.NegationWords, extra.NegationWords...)
	s.PreselectionKeywords = append(s.PreselectionKeywords, extra.PreselectionKeywords...)
	s.CostKeywords = append(s.CostKeywords, extra.CostKeywords...)
	s.CheckoutKeywords = append(s.CheckoutKeywords, extra.CheckoutKeywords...)
	s.ExtraChargeWords = append(s.ExtraChargeWords, extra.ExtraChargeWords...)
	s.CancellationKeywords = append(s.CancellationKeywords, extra.CancellationKeywords...)
	s.SubscribeKeywords = append(s.SubscribeKeywords, extra.SubscribeKeywords...)
	s.ObstructionPhrases = append(s.ObstructionPhrases, extra.ObstructionPhrases...)
	s.AdDisclosureWords = append(s.AdDisclosureWords, extra.AdDisclosureWords...)
	s.PromoKeywords = append(s.PromoKeywords, extra.PromoKeywords...)
	s.AdHostFragments = append(s.AdHostFragments, extra.AdHostFragments...)
	s.UrgencyKeywords = append(s.UrgencyKeywords, extra.UrgencyKeywords...)
	s.CountdownHints = append(s.CountdownHints, extra.CountdownHints...)
	s.ScarcityHints = append(s.ScarcityHints, extra.ScarcityHints...)
	s.AcceptWords = append(s.AcceptWords, extra.AcceptWords...)
	s.RejectWords = append(s.RejectWords, extra.RejectWords...)
}

// Weights maps named detector signals to their contribution strength. Keys
// are "<pattern>.<signal>"; unknown keys fall back to the caller's default.
type Weights map[string]float64

// DefaultWeights returns the built-in signal weights.
func DefaultWeights() Weights {
	return Weights{
		"confirmshaming.phrase_match":        0.9,
		"confirmshaming.loss_language":       0.8,
		"confirmshaming.dismiss_role":        0.85,
		"preselection.checked_default":       0.9,
		"preselection.radio_default":         0.85,
		"preselection.select_default":        0.8,
		"preselection.deemphasized":          1.1,
		"hidden_costs.price_jump":            0.9,
		"hidden_costs.extra_charges":         0.9,
		"hidden_costs.fine_print":            0.75,
		"difficult_cancellation.asymmetry":   0.85,
		"difficult_cancellation.obstruction": 0.95,
		"difficult_cancellation.buried_flow": 0.75,
		"misleading_ads.control_mimicry":     0.8,
		"misleading_ads.undisclosed":         0.85,
		"misleading_ads.external_target":     0.8,
		"false_urgency.countdown":            0.85,
		"false_urgency.scarcity":             0.85,
		"false_urgency.static_value":         0.9,
		"confusing_interface.asymmetry":      0.85,
		"confusing_interface.color_swap":     0.9,
	}
}

// Get returns the weight for key, or fallback when the key is absent.
func (w Weights) Get(key string, fallback float64) float64 {
	if w == nil {
		return fallback
	}
	if v, ok := w[key]; ok {
		return v
	}
	return fallback
}

// KnownWeightKeys lists every key DefaultWeights defines, for config
// validation of overrides.
func KnownWeightKeys() map[string]bool {
	known := map[string]bool{}
	for k := range DefaultWeights() {
		known[k] = true
	}
	return known
}
