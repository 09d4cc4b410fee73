package domain

// FederatedProfile is the provider-independent shape of a verified identity
// assertion from an OAuth provider. The orchestrator's find-or-create logic
// only ever sees this type, never the provider SDK's claim map.
type FederatedProfile struct {
	ProviderID  string
	DisplayName string
	Email       string
	PictureURL  string
}
