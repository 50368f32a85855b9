package testutil

// Environ returns a static environment for config.Config.Environ.
//
// Example usage:
//
//	cfg := &config.Config{Path: path, Environ: testutil.Environ(map[string]string{
//	    "LOGINROTATE_SqlSettings__NewPassword": "S3cret!",
//	})}
func Environ(vars map[string]string) func() []string {
	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	return func() []string { return env }
}
