package agreement

// ComputeStatus derives an agreement's status from its party list and recorded
// signatures. The canonical party set is the creator plus the invitees; both
// the sign and remove-signature paths use this same definition.
//
// Rules, in order:
//  1. no parties at all -> pending (degenerate, creator email is normally set)
//  2. every party has signed -> fully-signed
//  3. nobody has signed -> pending
//  4. otherwise -> partially-signed
func ComputeStatus(creatorEmail string, inviteeEmails []string, signedBy []Signature) Status {
	parties := make(map[string]struct{}, len(inviteeEmails)+1)
	if creatorEmail != "" {
		parties[creatorEmail] = struct{}{}
	}
	for _, e := range inviteeEmails {
		if e != "" {
			parties[e] = struct{}{}
		}
	}

	signed := make(map[string]struct{}, len(signedBy))
	for _, s := range signedBy {
		signed[s.Email] = struct{}{}
	}

	if len(parties) == 0 {
		return StatusPending
	}
	everyone := true
	for p := range parties {
		if _, ok := signed[p]; !ok {
			everyone = false
			break
		}
	}
	if everyone {
		return StatusFullySigned
	}
	if len(signed) == 0 {
		return StatusPending
	}
	return StatusPartiallySigned
}
