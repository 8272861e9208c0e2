/*
Package tls terminates TLS for the bastion listener.

NewServerConfig loads the certificate pair and returns a tls.Config whose
GetCertificate reads from a CertificateReloader, so renewed files (for
example from an ACME client) are served without a restart:

	tlsCfg, reloader, err := tls.NewServerConfig(tls.Config{
		CertFile:   "/etc/bastion/tls/server.crt",
		KeyFile:    "/etc/bastion/tls/server.key",
		MinVersion: "1.3",
	})
	if err != nil {
		return err
	}
	go reloader.Run(ctx)

	srv := &http.Server{Addr: addr, Handler: h, TLSConfig: tlsCfg}
	return srv.ListenAndServeTLS("", "")
*/
package tls
