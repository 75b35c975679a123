package upstream

// Config holds configuration for the upstream pull request source.
type Config struct {
	// BaseURL is the API endpoint of the upstream source.
	BaseURL string `mapstructure:"base_url" default:"https://api.github.com"`
	// Owner is the repository owner.
	Owner string `mapstructure:"owner" default:"NixOS"`
	// Repo is the repository name.
	Repo string `mapstructure:"repo" default:"nixpkgs"`
	// Token is the personal access token for authentication.
	Token string `mapstructure:"token" default:""`
	// TokenFile is a file to read the token from, used when Token is empty.
	TokenFile string `mapstructure:"token_file" default:""`
	// PerPage is the page size for list calls.
	PerPage int `mapstructure:"per_page" default:"100"`
	// TimeoutSeconds is the request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
