package domain

type InvocationIDKey struct{}
type FunctionKey struct{}

// FunctionSpec is the configuration of one function
type FunctionSpec struct {
	Image string `mapstructure:"image" json:"image"`
}

// FunctionDescription is what Describe reports about a configured function
type FunctionDescription struct {
	Name           string         `json:"name"`
	Image          string         `json:"image"`
	Reference      ImageReference `json:"reference"`
	Familiar       string         `json:"familiar"`
	HasCredentials bool           `json:"hasCredentials"`
	Remote         *RemoteImage   `json:"remote,omitempty"`
}

// CreateRequest contains the parameters of a container creation
type CreateRequest struct {
	Name  string
	Image string
	Cmd   []string
	Stdin bool
}

// ContainerExit is the outcome of waiting on a container
type ContainerExit struct {
	StatusCode int64
	Error      string
}
