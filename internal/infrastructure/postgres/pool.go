package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/jhoicas/facturacion-cfdi/pkg/config"
	"github.com/jhoicas/facturacion-cfdi/pkg/logger"
	"github.com/rs/zerolog"
)

// consultaLenta umbral a partir del cual una consulta se registra en warn.
const consultaLenta = 500 * time.Millisecond

var errSinIPv4 = errors.New("sin dirección IPv4")

// NewPool abre el pool de PostgreSQL. NUMERIC se mapea a decimal.Decimal en todas las conexiones.
// Los hosts se resuelven a IPv4: en contenedores sin IPv6 el DNS puede devolver solo AAAA.
func NewPool(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	if log == nil {
		log = logger.Nop()
	}
	dsn := cfg.ConnectionString()
	if cfg.DatabaseURL == "" {
		if ip, err := resolverIPv4(ctx, cfg.Host); err == nil {
			c := cfg
			c.Host = ip
			dsn = c.DSN()
		}
	} else {
		dsn = urlConIPv4(ctx, cfg.DatabaseURL)
	}

	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "facturacion-cfdi"
	pc.ConnConfig.DialFunc = dialIPv4
	pc.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   trazador{log: log.Component("postgres")},
		LogLevel: tracelog.LogLevelInfo,
	}

	pc.MaxConns = 25
	pc.MinConns = 2
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 30 * time.Minute
	pc.HealthCheckPeriod = time.Minute
	pc.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// trazador adapta tracelog.Logger a zerolog: errores de consulta y consultas lentas.
type trazador struct {
	log *logger.Logger
}

func (t trazador) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	var ev *zerolog.Event
	switch {
	case level <= tracelog.LogLevelError:
		ev = t.log.Error()
	case esLenta(data):
		ev = t.log.Warn()
	default:
		return
	}
	if e, ok := data["err"].(error); ok {
		ev = ev.Err(e)
	}
	if d, ok := data["time"].(time.Duration); ok {
		ev = ev.Dur("duracion", d)
	}
	if sql, ok := data["sql"].(string); ok {
		ev = ev.Str("sql", sql)
	}
	ev.Msg(msg)
}

func esLenta(data map[string]any) bool {
	d, ok := data["time"].(time.Duration)
	return ok && d >= consultaLenta
}

func dialIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ip, err := resolverIPv4(ctx, host)
	if err != nil {
		return d.DialContext(ctx, network, addr)
	}
	return d.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
}

// resolverIPv4 prueba el resolver del sistema y después un DNS público.
func resolverIPv4(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host, nil
		}
		return "", errSinIPv4
	}
	if ip, err := primeraIPv4(ctx, net.DefaultResolver, host); err == nil {
		return ip, nil
	}
	publico := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "udp", "8.8.8.8:53")
		},
	}
	return primeraIPv4(ctx, publico, host)
}

func primeraIPv4(ctx context.Context, r *net.Resolver, host string) (string, error) {
	ips, err := r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return "", errSinIPv4
}

func urlConIPv4(ctx context.Context, raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	ip, err := resolverIPv4(ctx, u.Hostname())
	if err != nil {
		return raw
	}
	u.Host = net.JoinHostPort(ip, port)
	return u.String()
}
