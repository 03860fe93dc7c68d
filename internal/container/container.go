package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/movemate/movesync/config"
	"github.com/movemate/movesync/internal/docstore"
	"github.com/movemate/movesync/internal/domain/repository"
	"github.com/movemate/movesync/pkg/helpers"
)

// app-level container to share constructed components across packages.
// The composition root (cmd/main.go) sets these once; router modules read
// them. Repository instances live here so exactly one exists per kind for
// the process lifetime.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	esClient    *elasticsearch.Client
	rabbitPub   *helpers.RabbitPublisher
	jwtManager  *helpers.JWTManager

	store docstore.Store

	driverProfiles   repository.ProfileRepository
	customerProfiles repository.ProfileRepository
	reviews          repository.ReviewRepository
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetES(c *elasticsearch.Client) { esClient = c }
func GetES() *elasticsearch.Client  { return esClient }

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetJWT(m *helpers.JWTManager)            { jwtManager = m }
func GetJWT() *helpers.JWTManager             { return jwtManager }

func SetStore(s docstore.Store) { store = s }
func GetStore() docstore.Store  { return store }

func SetDriverProfiles(r repository.ProfileRepository)   { driverProfiles = r }
func GetDriverProfiles() repository.ProfileRepository    { return driverProfiles }
func SetCustomerProfiles(r repository.ProfileRepository) { customerProfiles = r }
func GetCustomerProfiles() repository.ProfileRepository  { return customerProfiles }
func SetReviews(r repository.ReviewRepository)           { reviews = r }
func GetReviews() repository.ReviewRepository            { return reviews }
