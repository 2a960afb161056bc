// Package logger provee el logger zap del servicio con scoping por contexto.
//
// Una sola instancia global se inicializa con Init() desde cmd/usersvc; los
// requests reciben un logger "scoped" (request_id, method, path) que viaja en el
// contexto y se recupera con From(ctx) en controllers, services y repositorios.
//
// "dev" usa consola con colores y "prod" usa JSON. El nivel sale de LOG_LEVEL.
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx)
//	log.Info("user created", logger.UserID(id))
package logger
