package device

// RouterOS REST resource representations. Field names follow the device's
// kebab-case JSON convention.

// routerosSecret is a PPP secret (subscriber credential) on the device
type routerosSecret struct {
	ID       string `json:".id"`
	Name     string `json:"name"`
	Profile  string `json:"profile"`
	Comment  string `json:"comment"`
	Disabled string `json:"disabled"`
}

// routerosActive is a live PPP session on the device
type routerosActive struct {
	ID      string `json:".id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Uptime  string `json:"uptime"`
	Service string `json:"service"`
}

// routerosProfile is a PPP profile (bandwidth/policy tier) on the device
type routerosProfile struct {
	ID        string `json:".id"`
	Name      string `json:"name"`
	RateLimit string `json:"rate-limit"`
}
