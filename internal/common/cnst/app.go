package cnst

const (
	AppName = "familia"

	// CommandName is the binary name shown in CLI usage
	CommandName = "apiserver"

	// DefaultConfigFile is resolved through helper.GetCfgPath
	DefaultConfigFile = "apiserver.yaml"
)

// Gin context keys
const (
	CtxKeyClaims = "claims"
)
