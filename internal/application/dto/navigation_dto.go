package dto

// NavigationResponse decisión del guard para una página.
type NavigationResponse struct {
	Page     string `json:"page"`
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Logout   bool   `json:"logout,omitempty"`
	Denied   bool   `json:"denied,omitempty"`
}
