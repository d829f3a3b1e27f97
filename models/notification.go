package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationOrder  NotificationType = "order"
	NotificationPromo  NotificationType = "promo"
	NotificationSystem NotificationType = "system"
)

type NotificationTarget string

const (
	NotifyAll           NotificationTarget = "all"
	NotifySpecificUsers NotificationTarget = "specificUsers"
)

type Notification struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title     string               `bson:"title" json:"title"`
	Message   string               `bson:"message" json:"message"`
	Type      NotificationType     `bson:"type" json:"type"`
	Target    NotificationTarget   `bson:"target" json:"target"`
	UserIDs   []primitive.ObjectID `bson:"userIds,omitempty" json:"userIds,omitempty"`
	ReadBy    []primitive.ObjectID `bson:"readBy" json:"-"`
	SenderID  primitive.ObjectID   `bson:"senderId,omitempty" json:"senderId,omitempty"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}

// UserNotification annotates a notification with the requester's read state.
type UserNotification struct {
	Notification `bson:",inline"`
	IsRead       bool `json:"isRead"`
}
