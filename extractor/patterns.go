package extractor

import "regexp"

// Whitespace and digits are matched Unicode-wide. RE2's `\s` and `\d` are
// ASCII-only and miss the no-break space common after the currency symbol.
var (
	// rupeePattern matches "₹1,299" and "₹ 499", with an ASCII or no-break space.
	rupeePattern = regexp.MustCompile(`₹[\s\p{Zs}]?[\p{Nd},]+`)

	// rsPattern matches "Rs 999", "Rs. 999" and "Rs.1,500".
	rsPattern = regexp.MustCompile(`Rs\.?[\s\p{Zs}]?[\p{Nd},]+`)

	// phonePattern matches ten digits, optionally preceded by a one to
	// three digit country code and a space or dash. Any ten digit run
	// qualifies, so order and tracking numbers produce false positives.
	phonePattern = regexp.MustCompile(`(\+?\p{Nd}{1,3}[\s\p{Zs}-])?(\p{Nd}{10})`)
)
