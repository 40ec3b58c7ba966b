// Package storage almacén S3 compatible (MinIO) de los XML y PDF timbrados.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config conexión a MinIO.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Almacen implementa facturacion.Almacen sobre un bucket.
type Almacen struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

// NewAlmacen conecta con MinIO y crea el bucket si no existe.
func NewAlmacen(ctx context.Context, cfg Config, log *logger.Logger) (*Almacen, error) {
	if log == nil {
		log = logger.Nop()
	}
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: inicializar cliente MinIO: %w", err)
	}

	a := &Almacen{client: client, bucket: cfg.Bucket, log: log.Component("storage")}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := a.asegurarBucket(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Almacen) asegurarBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("storage: verificar bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("storage: crear bucket %s: %w", a.bucket, err)
	}
	a.log.Info().Str("bucket", a.bucket).Msg("bucket creado")
	return nil
}

// Guardar sube el objeto; una clave existente se sobrescribe.
func (a *Almacen) Guardar(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("storage: subir %s: %w", key, err)
	}
	return nil
}

// Obtener descarga el objeto. Devuelve domain.ErrNotFound si no existe.
func (a *Almacen) Obtener(ctx context.Context, key string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, a.traducir(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, a.traducir(key, err)
	}
	return data, nil
}

func (a *Almacen) traducir(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: objeto %s", domain.ErrNotFound, key)
	}
	return fmt.Errorf("storage: descargar %s: %w", key, err)
}

var _ facturacion.Almacen = (*Almacen)(nil)
