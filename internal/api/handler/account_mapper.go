package handler

import (
	"github.com/99minutos/account-system/internal/core/domain"
	"github.com/99minutos/account-system/internal/core/ports"
)

// ── Request → port input ────────────────────────────────────────────────────

func toCreateAccountInput(r registerRequest) ports.CreateAccountInput {
	return ports.CreateAccountInput{
		Username:  r.Username,
		Password:  r.Password,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

func toReplaceAccountInput(r replaceAccountRequest) ports.ReplaceAccountInput {
	return ports.ReplaceAccountInput{
		Username:  r.Username,
		Password:  r.Password,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

func toPatchAccountInput(r patchAccountRequest) ports.PatchAccountInput {
	return ports.PatchAccountInput{
		Username:  r.Username,
		Password:  r.Password,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

// ── Domain → response ───────────────────────────────────────────────────────

func toAccountResponse(p *domain.Profile) accountResponse {
	return accountResponse{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Links:     accountLinks{Self: "/users/" + p.ID},
	}
}

func toListAccountsResponse(profiles []*domain.Profile) listAccountsResponse {
	items := make([]accountResponse, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, toAccountResponse(p))
	}
	return listAccountsResponse{Items: items, Total: len(items)}
}
