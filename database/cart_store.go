package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/urbankisan/backend-go/models"
)

// CartStore keeps carts and wishlists in Redis, one JSON document per user
// for the cart and one set of product ids per user for the wishlist.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

func (s *CartStore) cartKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func (s *CartStore) wishlistKey(userID string) string {
	return fmt.Sprintf("wishlist:user:%s", userID)
}

func (s *CartStore) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := s.client.Get(ctx, s.cartKey(userID)).Result()
	if err == redis.Nil {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *CartStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.cartKey(cart.UserID), data, s.ttl).Err()
}

func (s *CartStore) DeleteCart(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.cartKey(userID)).Err()
}

func (s *CartStore) AddToWishlist(ctx context.Context, userID, productID string) error {
	return s.client.SAdd(ctx, s.wishlistKey(userID), productID).Err()
}

func (s *CartStore) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	return s.client.SRem(ctx, s.wishlistKey(userID), productID).Err()
}

func (s *CartStore) GetWishlist(ctx context.Context, userID string) ([]string, error) {
	return s.client.SMembers(ctx, s.wishlistKey(userID)).Result()
}
