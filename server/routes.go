package server

func (s *Server) initRoutes() {
	// Auth API
	s.RegisterRouteHandler("POST "+RouteAuthVerify, ChainMiddleware(s.VerifyHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthSubmit, ChainMiddleware(s.SubmitHandler(), s.APIMiddleware()...))

	// Protected resource
	s.RegisterRouteHandler("GET "+RouteProtected, ChainMiddleware(s.ProtectedHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
}
