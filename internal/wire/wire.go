package wire

import (
	"Inkwell/internal/api"
	"Inkwell/internal/api/config"
	"Inkwell/internal/api/handler"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/job"
	"Inkwell/internal/pkg/cache"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/cron"
	"Inkwell/internal/pkg/es"
	"Inkwell/internal/pkg/kafka"
	"Inkwell/internal/pkg/minio"
	"Inkwell/internal/pkg/mongo"
	"Inkwell/internal/pkg/redis"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/repository"
	"Inkwell/internal/service"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager
	UserService  service.UserService
	PostESRepo   es.PostRepo
}

// BuildApplication mongoDB / esClient 为 nil 时对应功能降级；Kafka 未启用时 KafkaManager 为 nil
func BuildApplication(db *gorm.DB, mongoDB *mongodriver.Database, esClient *elasticsearch.TypedClient, cfg *config.Config) (*ApplicationContainer, error) {
	transactor := repository.NewTransactor(db)
	userRepo := repository.NewUserRepo(db)
	userRolesRepo := repository.NewUserRolesRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	tagRepo := repository.NewTagRepository(db)

	var postESRepo es.PostRepo
	if esClient != nil {
		postESRepo = es.NewPostRepo(esClient)
	}
	var auditRepo mongo.ModerationLogRepo
	if mongoDB != nil {
		auditRepo = mongo.NewModerationLogRepo(mongoDB)
	}

	appCache := cache.New(cfg.Cache)
	commentDirty := redis.NewDirtySet(consts.PostCommentDirtyKey)
	postViews := redis.NewCounter(consts.PostViewKey, consts.PostViewDirtyKey)
	submitLimiter := redis.NewIntervalLimiter(consts.CommentSubmitLock, time.Duration(cfg.Blog.CommentIntervalSec)*time.Second)

	sessions := redis.NewSessionRevoker(consts.UserSessionRevokeKey, security.JWTExpirationTime)

	userService := service.NewUserService(userRepo, roleRepo, userRolesRepo, sessions)
	userRolesService := service.NewUserRolesService(userRepo, roleRepo, userRolesRepo, sessions)
	postService := service.NewPostService(postRepo, categoryRepo, tagRepo, commentRepo, transactor, postESRepo, appCache, postViews)
	commentService := service.NewCommentService(commentRepo, postRepo, transactor, auditRepo, commentDirty, appCache, submitLimiter, cfg.Blog.CommentMaxLength)
	categoryService := service.NewCategoryService(categoryRepo, appCache)
	tagService := service.NewTagService(tagRepo)
	mediaService := service.NewMediaService(minio.NewObjectStore(), cfg.MinIO.MaxUploadSize, cfg.MinIO.ThumbnailWidth)

	handlers := &api.HandlersGroup{
		PostHandler:     handler.NewPostHandler(postService),
		CommentHandler:  handler.NewCommentHandler(commentService, postService),
		TaxonomyHandler: handler.NewTaxonomyHandler(categoryService, tagService),
		UserHandler:     handler.NewUserHandler(userService, userRolesService),
		MediaHandler:    handler.NewMediaHandler(mediaService),
	}
	router := api.SetupRouter(handlers, middleware.NewRedisBlacklist(sessions), cfg.Server)

	cronMgr := cron.NewCronManager(
		cfg.Cron,
		job.NewCommentCountJob(commentDirty, postService),
		job.NewPostViewJob(postViews, postService),
		job.NewRenderCacheJob(redis.NewMutex(consts.RenderJobLock, 15*time.Minute), postService),
	)

	var kafkaMgr *kafka.ConsumerManager
	if cfg.Kafka.Enable && postESRepo != nil {
		var err error
		kafkaMgr, err = kafka.NewConsumerManager(cfg, postRepo, postESRepo)
		if err != nil {
			return nil, err
		}
	}

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		CronMgr:      cronMgr,
		KafkaManager: kafkaMgr,
		UserService:  userService,
		PostESRepo:   postESRepo,
	}, nil
}
