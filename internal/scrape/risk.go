package scrape

import "strings"

// DetectRiskHint reports whether a body looks like an anti-bot interstitial
// rather than content.
func DetectRiskHint(body string) string {
	s := strings.TrimSpace(body)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "captcha") || strings.Contains(lower, "recaptcha") {
		return "captcha"
	}
	if strings.Contains(s, "验证码") || strings.Contains(s, "人机验证") || strings.Contains(s, "安全验证") {
		return "captcha"
	}
	if strings.Contains(s, "请通过验证") || strings.Contains(s, "访问验证") || strings.Contains(s, "滑块验证") {
		return "captcha"
	}
	if strings.Contains(s, "Sina Visitor System") || strings.Contains(s, "新浪通行证") {
		return "visitor_login"
	}
	if strings.Contains(lower, "access denied") {
		return "forbidden"
	}
	return ""
}
