package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-api/internal/auth"
	"marketplace-api/internal/config"
	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*model.User, string, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*model.User, string, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)

	ListAddresses(ctx context.Context, userID string) ([]*model.Address, error)
	CreateAddress(ctx context.Context, userID string, req *dto.CreateAddressRequest) (*model.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
}

type userServiceImpl struct {
	db          *gorm.DB
	jwtCfg      *config.JWT
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
}

func NewUserService(db *gorm.DB, jwtCfg *config.JWT, userRepo repository.UserRepository, addressRepo repository.AddressRepository) UserService {
	return &userServiceImpl{
		db:          db,
		jwtCfg:      jwtCfg,
		userRepo:    userRepo,
		addressRepo: addressRepo,
	}
}

func (s *userServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*model.User, string, error) {
	if req.Email == "" || req.Password == "" {
		return nil, "", fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         model.RoleCustomer,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := auth.GenerateToken(s.jwtCfg, user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

func (s *userServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.jwtCfg, user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

func (s *userServiceImpl) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *userServiceImpl) ListAddresses(ctx context.Context, userID string) ([]*model.Address, error) {
	return s.addressRepo.ListByUser(ctx, userID)
}

func (s *userServiceImpl) CreateAddress(ctx context.Context, userID string, req *dto.CreateAddressRequest) (*model.Address, error) {
	address := &model.Address{
		ID:         uuid.NewString(),
		UserID:     userID,
		FullName:   req.FullName,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
	if err := s.addressRepo.Create(ctx, s.db, address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	return address, nil
}

func (s *userServiceImpl) DeleteAddress(ctx context.Context, userID, addressID string) error {
	return s.addressRepo.Delete(ctx, userID, addressID)
}
