// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"strings"

	"github.com/google/uuid"
)

// Kind tags which signal produced an Identity.
type Kind int

const (
	Anonymous Kind = iota
	FingerprintOnly
	NetworkOnly
	Authenticated
)

// Key prefixes. Distinct prefixes keep signal classes from colliding.
const (
	PrefixUser        = "user:"
	PrefixNetwork     = "ip:"
	PrefixFingerprint = "fp:"
	PrefixAnonymous   = "anon:"
)

// TrustTier ranks signal strength. Only used for precedence, never for access control.
type TrustTier string

const (
	TierAuthenticated TrustTier = "authenticated"
	TierNetwork       TrustTier = "network"
	TierFingerprint   TrustTier = "fingerprint"
	TierAnonymous     TrustTier = "anonymous"
)

// Rank orders tiers: anonymous < fingerprint < network < authenticated
func (t TrustTier) Rank() int {
	switch t {
	case TierAuthenticated:
		return 3
	case TierNetwork:
		return 2
	case TierFingerprint:
		return 1
	}
	return 0
}

// Identity is the resolved voter. The zero value is not valid; use Resolve.
type Identity struct {
	kind  Kind
	value string // signal value, or the random token for Anonymous

	// Raw inputs, retained for the audit columns on a vote row.
	SessionUserID  string
	NetworkAddress string
	Fingerprint    string
}

// Resolve picks the strongest available signal and derives the voter key.
// It performs no I/O and always returns a usable identity.
//
// Voters behind one network address share a key. That is accepted: the
// address outranks the fingerprint because it survives cookie clearing.
func Resolve(sessionUserID, networkAddress, fingerprint string) Identity {
	id := Identity{
		SessionUserID:  strings.TrimSpace(sessionUserID),
		NetworkAddress: strings.TrimSpace(networkAddress),
		Fingerprint:    strings.TrimSpace(fingerprint),
	}

	switch {
	case id.SessionUserID != "":
		id.kind, id.value = Authenticated, id.SessionUserID
	case id.NetworkAddress != "":
		id.kind, id.value = NetworkOnly, id.NetworkAddress
	case id.Fingerprint != "":
		id.kind, id.value = FingerprintOnly, id.Fingerprint
	default:
		// Fresh per call, so anonymous voters are never deduplicated.
		id.kind, id.value = Anonymous, uuid.NewString()
	}

	return id
}

// Kind reports which signal won.
func (id Identity) Kind() Kind {
	return id.kind
}

// Key returns the canonical voter key used for dedup within a poll.
func (id Identity) Key() string {
	switch id.kind {
	case Authenticated:
		return PrefixUser + id.value
	case NetworkOnly:
		return PrefixNetwork + id.value
	case FingerprintOnly:
		return PrefixFingerprint + id.value
	}
	return PrefixAnonymous + id.value
}

// Tier returns the trust tier for the winning signal.
func (id Identity) Tier() TrustTier {
	switch id.kind {
	case Authenticated:
		return TierAuthenticated
	case NetworkOnly:
		return TierNetwork
	case FingerprintOnly:
		return TierFingerprint
	}
	return TierAnonymous
}

// IsAnonymous is true when no signal survived. Such a key never matches a stored vote.
func (id Identity) IsAnonymous() bool {
	return id.kind == Anonymous
}

func (k Kind) String() string {
	switch k {
	case Authenticated:
		return "authenticated"
	case NetworkOnly:
		return "network_only"
	case FingerprintOnly:
		return "fingerprint_only"
	}
	return "anonymous"
}
