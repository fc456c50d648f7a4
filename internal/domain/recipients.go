package domain

// RecipientBook resolves which addresses receive a notification for a channel.
type RecipientBook struct {
	Default   []string
	PerSource map[string][]string
}

// Resolve returns the channel-specific list when configured, else the default
// list, else nil. The two lists are never merged.
func (b RecipientBook) Resolve(sourceID string) []string {
	if list := b.PerSource[sourceID]; len(list) > 0 {
		return append([]string(nil), list...)
	}
	if len(b.Default) > 0 {
		return append([]string(nil), b.Default...)
	}
	return nil
}

// Empty reports whether no recipient is configured anywhere.
func (b RecipientBook) Empty() bool {
	if len(b.Default) > 0 {
		return false
	}
	for _, list := range b.PerSource {
		if len(list) > 0 {
			return false
		}
	}
	return true
}
