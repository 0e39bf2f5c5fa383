package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/talknet/internal/config"
	"github.com/joshua-takyi/talknet/internal/helpers"
	"github.com/joshua-takyi/talknet/internal/mailer"
	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/realtime"
	"github.com/joshua-takyi/talknet/internal/services"
	"github.com/joshua-takyi/talknet/internal/tokens"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Logger        *slog.Logger
	Config        *config.Config
	Cloudinary    *cloudinary.Cloudinary
	MongoDBClient *mongo.Client
	Repo          *models.MongodbRepo
	Tokens        *tokens.Service
	Outbox        *mailer.Outbox
	Hub           *realtime.Hub

	AuthService    *services.AuthService
	UserService    *services.UserService
	FriendService  *services.FriendService
	MessageService *services.MessageService
}

// NewContainer creates a new dependency injection container. The outbox is
// returned unstarted; the caller owns its lifecycle along with the hub.
func NewContainer(
	logger *slog.Logger,
	cfg *config.Config,
	cld *cloudinary.Cloudinary,
	mongoDBClient *mongo.Client,
) *Container {
	repo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBName)
	tokenService := tokens.NewService(cfg.JWT)
	hub := realtime.NewHub(logger)

	var sender mailer.Sender
	if cfg.MailEnabled() {
		sender = mailer.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		logger.Warn("SMTP is not configured, emails will only be logged")
		sender = mailer.NewLogSender(logger)
	}
	outbox := mailer.NewOutbox(sender, logger, cfg.Mail.QueueSize, cfg.Mail.MaxRetries, cfg.Mail.RetryBase)

	return &Container{
		Logger:         logger,
		Config:         cfg,
		Cloudinary:     cld,
		MongoDBClient:  mongoDBClient,
		Repo:           repo,
		Tokens:         tokenService,
		Outbox:         outbox,
		Hub:            hub,
		AuthService:    services.NewAuthService(repo, tokenService, outbox, cfg.AppBaseURL, logger),
		UserService:    services.NewUserService(repo, helpers.NewCloudinaryStore(cld), logger),
		FriendService:  services.NewFriendService(repo, repo, logger),
		MessageService: services.NewMessageService(repo, repo, hub, logger),
	}
}
