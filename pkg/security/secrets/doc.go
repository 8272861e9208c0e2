/*
Package secrets resolves ${secret:name} references in configuration values.

Values such as app.secret_key or database.dsn may embed references instead of
literal credentials:

	app:
	  secret_key: "${secret:signing-key}"
	database:
	  driver: postgres
	  dsn: "postgres://bastion:${secret:db-password}@db/bastion"

A Resolver consults its providers in order. FileProvider reads one file per
secret from a mounted directory and rejects files readable by group or
others. EnvProvider reads BASTION_SECRET_<NAME> variables.

	r := secrets.NewResolver(fileProvider, secrets.NewEnvProvider("BASTION_SECRET_"))
	dsn, err := r.Expand(ctx, cfg.Database.DSN)
*/
package secrets
