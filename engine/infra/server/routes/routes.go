package routes

// Base is the API base path. The web client calls these paths unversioned.
func Base() string {
	return "/api"
}

func buildResourceRoute(resource string) string {
	return Base() + "/" + resource
}

func Configuration() string { return buildResourceRoute("configuration") }
func Profiles() string      { return buildResourceRoute("profiles") }
func Package() string       { return buildResourceRoute("package") }
func Deployments() string   { return buildResourceRoute("deployments") }

// Health is the liveness path, mounted outside the API group so rate limiting
// and body limits never apply to it.
func Health() string {
	return "/health"
}
