package realtime

import "fmt"

// TopicGlobal is the single channel carrying list-level updates for every
// connected client.
const TopicGlobal = "global"

// TaskTopic names the channel for one task's updates.
func TaskTopic(taskID uint64) string {
	return fmt.Sprintf("task:%d", taskID)
}

// UserTopic names the channel for one user's notifications.
func UserTopic(userID uint64) string {
	return fmt.Sprintf("user:%d", userID)
}
