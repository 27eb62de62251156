package whatsapp

import "strings"

// BareJID strips the device and agent suffix from a JID's user part, so
// "49170.0:12@s.whatsapp.net" and "49170@s.whatsapp.net" compare equal.
func BareJID(jid string) string {
	user, server, found := strings.Cut(jid, "@")
	if !found {
		return jid
	}
	if idx := strings.IndexAny(user, ".:"); idx >= 0 {
		user = user[:idx]
	}
	return user + "@" + server
}

// SameUser reports whether two JIDs belong to the same account.
func SameUser(a, b string) bool {
	return a != "" && b != "" && BareJID(a) == BareJID(b)
}
