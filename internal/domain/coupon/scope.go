package coupon

// Matches reports whether the scope admits the given order. Each field is
// checked independently and all three must hold; a nil field is a wildcard.
func (s Scope) Matches(ord OrderContext) bool {
	if s.ChannelID != nil && *s.ChannelID != ord.ChannelID {
		return false
	}
	if s.TargetType != nil && *s.TargetType != ord.OrderType {
		return false
	}
	if s.TargetID != nil && *s.TargetID != ord.TargetID {
		return false
	}
	return true
}
